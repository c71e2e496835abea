package kv

import (
	"fmt"
	"sync"

	"party-ledger/core/storage"
)

// Store is a string-keyed durable key/value store.
// Implementations are synchronous; the ledger treats them as always available.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// Config holds configuration for the local cache backend.
type Config struct {
	// Driver selects the backend: sqlite, memory or object.
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the sqlite file used by the sqlite driver.
	Path string `mapstructure:"path" default:"ledger-cache.db"`
	// Prefix is the object key prefix used by the object driver.
	Prefix string `mapstructure:"prefix" default:"cache/"`
}

// Open builds the Store selected by cfg.Driver.
// The storage client is only required for the object driver.
func Open(cfg Config, client storage.Client, bucket string) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return OpenSQLite(cfg.Path)
	case "object":
		if client == nil {
			return nil, fmt.Errorf("object cache driver requires a storage client")
		}
		return NewObjectStore(client, bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Memory is an in-process Store. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}
