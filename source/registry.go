package source

import (
	"context"
	"sort"

	"github.com/hidal-go/docload/base"
)

// OpenFunc is a function for connecting to a document store.
type OpenFunc func(ctx context.Context, cfg Config) (Store, error)

// Registration is an information about the source driver.
type Registration struct {
	base.Registration
	Open OpenFunc
}

var registry = make(map[string]Registration)

// Register globally registers a source driver.
func Register(reg Registration) {
	if reg.Name == "" {
		panic("name cannot be empty")
	} else if _, ok := registry[reg.Name]; ok {
		panic(base.ErrRegistered{Name: reg.Name})
	} else if reg.Open == nil {
		panic("open function cannot be nil")
	}
	registry[reg.Name] = reg
}

// List enumerates all globally registered source drivers.
func List() []Registration {
	out := make([]Registration, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// ByName returns a registered source driver by it's name.
func ByName(name string) *Registration {
	r, ok := registry[name]
	if !ok {
		return nil
	}
	return &r
}
