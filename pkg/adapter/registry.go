package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Get retrieves an adapter factory by name.
func Get(name string) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// NewAdapter creates a new adapter instance for the credential driver name.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(driver string, logger *slog.Logger) (Adapter, error) {
	if driver == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(driver)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      driver,
			Available: ListAdapters(),
		}
	}
	a := factory(logger)
	d := a.Dialect()
	if d == nil {
		return nil, fmt.Errorf("adapter %q: %w", driver, dialect.ErrDialectRequired)
	}
	if registered, ok := dialect.Get(d.Name); !ok || registered != d {
		return nil, fmt.Errorf("adapter %q: dialect %q is not registered", driver, d.Name)
	}
	return a, nil
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
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check credentials.driver in leapconnect.yaml", e.Type, e.Available)
}
