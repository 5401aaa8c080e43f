package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each partition in its own JSON file under a data
// directory, e.g. friends.json or messages_alice_bob.json. Files are
// human-inspectable and rewritten in full on every save.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(partition string) string {
	return filepath.Join(s.dir, partition+".json")
}

func (s *FileStore) LoadAll(partition string) ([]byte, error) {
	data, err := os.ReadFile(s.path(partition))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read partition %q: %w", partition, err)
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}

	return data, nil
}

func (s *FileStore) SaveAll(partition string, data []byte) error {
	if err := os.WriteFile(s.path(partition), data, 0o644); err != nil {
		return fmt.Errorf("write partition %q: %w", partition, err)
	}

	return nil
}
