package storage

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the durable store cannot be reached (missing
// file permissions, closed database). Callers degrade to in-memory operation
// rather than failing the session.
var ErrUnavailable = errors.New("durable store unavailable")

// Store is the durable string store the budgeting session persists through.
// It mirrors a web-local storage contract: flat string keys, whole-value
// replacement, removal of single keys.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
