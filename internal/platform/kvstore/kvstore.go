// Package kvstore provides single-blob key-value storage for the visit
// logger. The whole visit collection is serialized under one key and
// rewritten wholesale on every mutation, so the contract is deliberately
// small: Get, Put, Delete. Three backends are provided: an atomic
// file-per-key store (the default), a SQLite-backed store for devices
// where a single database file is preferable, and an in-memory store for
// tests and development.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no payload exists under the key.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// KV is the contract for single-blob storage backends.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
