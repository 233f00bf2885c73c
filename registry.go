package cloak

import (
	"sync"
)

var (
	registry   = make(map[string]*Hooks)
	registryMu sync.RWMutex
)

// Use returns the hooks attached to typeName, attaching them on first use.
// Later calls return the cached hooks and ignore raw and defaults: a record
// type is attached exactly once.
func Use(typeName string, raw RawConfig, defaults Defaults) (*Hooks, error) {
	// Fast path: read-lock cache check
	registryMu.RLock()
	if cached, ok := registry[typeName]; ok {
		registryMu.RUnlock()
		return cached, nil
	}
	registryMu.RUnlock()

	// Slow path: attach and cache with write-lock
	registryMu.Lock()
	defer registryMu.Unlock()

	// Double-check pattern
	if cached, ok := registry[typeName]; ok {
		return cached, nil
	}

	hooks, err := Attach(typeName, raw, defaults)
	if err != nil {
		return nil, err
	}

	registry[typeName] = hooks
	return hooks, nil
}

// Lookup returns the hooks attached to typeName, if any.
func Lookup(typeName string) (*Hooks, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	h, ok := registry[typeName]
	return h, ok
}

// Reset clears the hooks registry.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Hooks)
}
