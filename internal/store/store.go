package store

import "errors"

// ErrNotFound is returned by LoadAll when the named partition has never
// been written. Callers treat it as an empty collection.
var ErrNotFound = errors.New("partition not found")

// Store persists named partitions as whole documents. A partition holds the
// JSON encoding of one logical collection (the friendship set, one room's
// message log, the account list) and is fully rewritten on every save.
type Store interface {
	LoadAll(partition string) ([]byte, error)
	SaveAll(partition string, data []byte) error
}
