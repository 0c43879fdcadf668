package sourcetest

import (
	"sort"
	"testing"

	"github.com/hidal-go/docload/source"
)

// Registration pairs a source driver with the store fixtures that can run it.
type Registration struct {
	source.Registration
	Versions []Version
}

// Version is a fixture for one server release, such as a container image tag.
type Version struct {
	Name    string
	Factory Database
}

var registry = make(map[string][]Version)

// Register adds fixtures for a source driver that is already registered in source.
// Fixtures are kept sorted by version name.
func Register(name string, vers ...Version) {
	if name == "" {
		panic("name cannot be empty")
	} else if len(vers) == 0 {
		panic("at least one version should be specified")
	} else if r := source.ByName(name); r == nil {
		panic("name is not registered")
	}
	vers = append([]Version{}, vers...)
	sort.Slice(vers, func(i, j int) bool {
		return vers[i].Name < vers[j].Name
	})
	registry[name] = vers
}

// List returns every driver that has fixtures, sorted by driver name.
func List() []Registration {
	out := make([]Registration, 0, len(registry))
	for name, vers := range registry {
		out = append(out, Registration{
			Registration: *source.ByName(name),
			Versions:     append([]Version{}, vers...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// ByName returns a copy of the fixtures for a driver, or nil if it has none.
func ByName(name string) *Registration {
	vers, ok := registry[name]
	if !ok {
		return nil
	}
	return &Registration{
		Registration: *source.ByName(name),
		Versions:     append([]Version{}, vers...),
	}
}

func allNames() []string {
	var names []string
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunTest starts a store from every fixture of the named drivers and passes it to test.
// With no names it covers all drivers that have fixtures.
func RunTest(t *testing.T, test func(t *testing.T, db Database), names ...string) {
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			panic("not registered: " + name)
		}
	}
	run := func(t *testing.T, name string) {
		for _, v := range ByName(name).Versions {
			v := v
			t.Run(v.Name, func(t *testing.T) {
				test(t, v.Factory)
			})
		}
	}
	if len(names) == 1 {
		run(t, names[0])
		return
	}
	if len(names) == 0 {
		names = allNames()
	}
	for _, name := range names {
		name := name
		t.Run(name, func(t *testing.T) {
			run(t, name)
		})
	}
}

// Test runs the conformance suite against containers of the named drivers.
// It is skipped under -short; fixtures skip themselves when docker is unavailable.
func Test(t *testing.T, names ...string) {
	if testing.Short() {
		t.Skip("skipping container tests in short mode")
	}
	RunTest(t, TestSource, names...)
}
