package manifest

import (
	"fmt"
	"strings"
)

// Graph is the dependency graph of a manifest. Edges point from an entry to
// the entries it depends on. References to unknown names are kept aside in
// Missing instead of becoming edges.
type Graph struct {
	order   []string
	index   map[string]int
	deps    map[string][]string
	Missing map[string][]string
}

// NewGraph builds the dependency graph. Duplicate names keep their first
// occurrence; the validator reports duplicates separately.
func NewGraph(m *Manifest) *Graph {
	g := &Graph{
		index:   make(map[string]int, len(m.Entries)),
		deps:    make(map[string][]string, len(m.Entries)),
		Missing: make(map[string][]string),
	}
	for _, e := range m.Entries {
		if _, dup := g.index[e.Name]; dup {
			continue
		}
		g.index[e.Name] = len(g.order)
		g.order = append(g.order, e.Name)
	}
	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		for _, dep := range e.Dependencies {
			if _, ok := g.index[dep]; !ok {
				g.Missing[e.Name] = append(g.Missing[e.Name], dep)
				continue
			}
			g.deps[e.Name] = append(g.deps[e.Name], dep)
		}
	}
	return g
}

// Dependencies returns the resolved dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	return g.deps[name]
}

// DetectCycles returns an error naming the first cycle found, walking
// entries in manifest order so the result is deterministic.
func (g *Graph) DetectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		visiting[name] = true
		path = append(path, name)
		for _, dep := range g.deps[name] {
			if dep == name {
				return fmt.Errorf("%s depends on itself", name)
			}
			if visiting[dep] {
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), dep)
				return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, name)
		visited[name] = true
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range g.order {
		if !visited[name] {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Order returns entry names so that every entry follows its dependencies.
// Among entries that are ready at the same time, manifest order wins.
// It returns an error if the graph has a cycle.
func (g *Graph) Order() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	remaining := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		remaining[name] = len(g.deps[name])
		for _, dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	done := make(map[string]bool, len(g.order))
	result := make([]string, 0, len(g.order))
	for len(result) < len(g.order) {
		for _, name := range g.order {
			if done[name] || remaining[name] > 0 {
				continue
			}
			done[name] = true
			result = append(result, name)
			for _, d := range dependents[name] {
				remaining[d]--
			}
			break
		}
	}
	return result, nil
}

// OrderedEntries returns pointers to m's entries in dependency order.
func OrderedEntries(m *Manifest) ([]*Entry, error) {
	names, err := NewGraph(m).Order()
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(names))
	for _, name := range names {
		e, _ := m.Lookup(name)
		out = append(out, e)
	}
	return out, nil
}
