package dataset

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nemanja-m/lapreduce/pkg/core"
)

// Source produces a dataset on demand.
type Source func() (core.Dataset, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Source)
)

func Register(name string, source Source) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("dataset already registered: %s", name)
	}
	registry[name] = source
	return nil
}

func Get(name string) (core.Dataset, error) {
	mu.RLock()
	source, exists := registry[name]
	mu.RUnlock()
	if !exists {
		return core.Dataset{}, fmt.Errorf("dataset not found: %s", name)
	}
	return source()
}

// List returns registered dataset names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
