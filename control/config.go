// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with typed accessors and reload listeners.

package control

import (
	"fmt"
	"strconv"
	"sync"
)

// Configuration keys understood by the library.
const (
	KeyAllocBackend   = "alloc.backend"
	KeyAllocMaxBytes  = "alloc.max_bytes"
	KeyAllocRecycle   = "alloc.recycle"
	KeyRunnerWorkers  = "runner.workers"
	KeyMergeQueueHint = "merge.queue_hint"
	KeyRunnerPin      = "runner.pin_workers"
)

// Allocator backends.
const (
	BackendMmap = "mmap"
	BackendHeap = "heap"
)

// Config is the typed view of a ConfigStore snapshot.
type Config struct {
	AllocBackend   string
	AllocMaxBytes  int64 // 0 = unlimited
	AllocRecycle   int   // cached regions per size class, 0 = off
	Workers        int   // <= 0 = one per CPU
	MergeQueueHint int
	PinWorkers     bool
}

// DefaultConfig returns the values used for missing keys.
func DefaultConfig() map[string]any {
	return map[string]any{
		KeyAllocBackend:   BackendMmap,
		KeyAllocMaxBytes:  int64(0),
		KeyAllocRecycle:   0,
		KeyRunnerWorkers:  0,
		KeyMergeQueueHint: 16,
		KeyRunnerPin:      false,
	}
}

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a store holding DefaultConfig.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    DefaultConfig(),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and notifies listeners synchronously.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Typed decodes the current snapshot. Values of the wrong type are
// reported, not silently replaced.
func (cs *ConfigStore) Typed() (Config, error) {
	snap := cs.GetSnapshot()
	var (
		c   Config
		err error
	)
	if c.AllocBackend, err = asString(snap, KeyAllocBackend); err != nil {
		return Config{}, err
	}
	if c.AllocMaxBytes, err = asInt64(snap, KeyAllocMaxBytes); err != nil {
		return Config{}, err
	}
	rc, err := asInt64(snap, KeyAllocRecycle)
	if err != nil {
		return Config{}, err
	}
	c.AllocRecycle = int(rc)
	w, err := asInt64(snap, KeyRunnerWorkers)
	if err != nil {
		return Config{}, err
	}
	c.Workers = int(w)
	q, err := asInt64(snap, KeyMergeQueueHint)
	if err != nil {
		return Config{}, err
	}
	c.MergeQueueHint = int(q)
	if c.PinWorkers, err = asBool(snap, KeyRunnerPin); err != nil {
		return Config{}, err
	}
	return c, nil
}

func asString(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return DefaultConfig()[key].(string), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("config %s: expected string, got %T", key, v)
	}
}

func asBool(m map[string]any, key string) (bool, error) {
	switch v := m[key].(type) {
	case nil:
		return DefaultConfig()[key].(bool), nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("config %s: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("config %s: expected bool, got %T", key, v)
	}
}

func asInt64(m map[string]any, key string) (int64, error) {
	switch v := m[key].(type) {
	case nil:
		return asInt64(DefaultConfig(), key)
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("config %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("config %s: expected integer, got %T", key, v)
	}
}
