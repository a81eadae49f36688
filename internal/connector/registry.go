package connector

import (
	"fmt"
	"sort"
)

// Constructor is a function that creates a new Connector instance.
type Constructor func() Connector

var registry = map[string]Constructor{}

// Register adds a connector constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the connector constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %v)", ErrUnknownProvider, name, Providers())
	}
	return ctor, nil
}

// Providers returns the names of all registered connector providers, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
