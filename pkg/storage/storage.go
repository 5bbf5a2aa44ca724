// Package storage keeps the client's durable mirrors (cart, session) behind a
// small key/value contract so the same stores run against sqlite, postgres,
// redis or process memory.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is a namespaced string key/value store. Writes are synchronous: when
// Set returns nil the value is durable for the backend.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const defaultNamespace = "bookbuddy"

func normalizeNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return defaultNamespace
	}
	return ns
}

// normalizeKey trims surrounding space so every backend addresses the same
// entry for " cart" and "cart".
func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	return key, nil
}
