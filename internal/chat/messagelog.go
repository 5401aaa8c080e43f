package chat

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/example/go-chatapp/internal/store"
	"github.com/example/go-chatapp/internal/types"
)

// MessageLog is the append-only per-room message history. Each room's log
// lives in its own store partition (messages_public, messages_alice_bob)
// and is rewritten in full on every append.
type MessageLog struct {
	log   *log.Logger
	store store.Store

	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

func NewMessageLog(logger *log.Logger, st store.Store) *MessageLog {
	return &MessageLog{
		log:   logger,
		store: st,
		rooms: make(map[string]*sync.Mutex),
	}
}

func roomPartition(roomId string) string {
	id := normalize(roomId)
	if id == "" {
		id = PublicRoom
	}
	return "messages_" + id
}

// roomLock returns the mutex serializing access to one room's partition.
// Appends to different rooms do not block each other.
func (ml *MessageLog) roomLock(partition string) *sync.Mutex {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	lock, ok := ml.rooms[partition]
	if !ok {
		lock = &sync.Mutex{}
		ml.rooms[partition] = lock
	}
	return lock
}

// Append adds a message to its room's log. Appends to the same room are
// serialized so concurrent writes never lose a message. Persistence faults
// are logged and swallowed; the caller's broadcast flow must not fail
// because durable logging did.
func (ml *MessageLog) Append(msg types.Message) {
	partition := roomPartition(msg.RoomId)

	lock := ml.roomLock(partition)
	lock.Lock()
	defer lock.Unlock()

	messages := ml.loadAll(partition)
	messages = append(messages, msg)

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		ml.log.Printf("encode %s: %v", partition, err)
		return
	}

	if err := ml.store.SaveAll(partition, data); err != nil {
		ml.log.Printf("save %s: %v", partition, err)
	}
}

// LoadRecent returns the most recent limit messages for a room,
// oldest-first. A non-positive limit, an unknown room, or a read fault all
// yield an empty slice.
func (ml *MessageLog) LoadRecent(roomId string, limit int) []types.Message {
	if limit <= 0 {
		return []types.Message{}
	}

	partition := roomPartition(roomId)

	lock := ml.roomLock(partition)
	lock.Lock()
	defer lock.Unlock()

	all := ml.loadAll(partition)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	return all
}

func (ml *MessageLog) loadAll(partition string) []types.Message {
	messages := []types.Message{}

	data, err := ml.store.LoadAll(partition)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			ml.log.Printf("load %s: %v", partition, err)
		}
		return messages
	}

	if err := json.Unmarshal(data, &messages); err != nil {
		ml.log.Printf("parse %s: %v", partition, err)
		return []types.Message{}
	}

	return messages
}
