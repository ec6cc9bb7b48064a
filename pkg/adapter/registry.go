package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultAdapter is used when credentials do not name an engine.
const DefaultAdapter = "mysql"

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func() Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves an adapter factory by name.
func Get(name string) (func() Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewAdapter creates an adapter by name. An empty name selects DefaultAdapter.
func NewAdapter(name string) (Adapter, error) {
	if name == "" {
		name = DefaultAdapter
	}

	factory, ok := Get(name)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      name,
			Available: ListAdapters(),
		}
	}
	return factory(), nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an adapter type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your target.type in leapplan.yaml", e.Type, e.Available)
}
