package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// resolveOrder deduplicates the manifests by name, rejects any Dependencies
// entry that names a manifest not in the set, and returns a topological order: every manifest appears after all
// of its dependencies. Among nodes with no remaining incoming edges at a
// given step, the one with the highest Priority goes first; ties break by
// registration order (the order manifests were first seen), never by name,
// so load order is deterministic without being alphabetic.
func resolveOrder(manifests []*Manifest) ([]*Manifest, error) {
	byName := make(map[string]*Manifest, len(manifests))
	order := make(map[string]int, len(manifests))
	for i, m := range manifests {
		if m.Name == "" {
			return nil, newError("", "resolve", "manifest has empty name", nil)
		}
		if _, dup := byName[m.Name]; dup {
			continue
		}
		byName[m.Name] = m
		order[m.Name] = i
	}

	for _, m := range manifests {
		for _, dep := range m.Dependencies {
			if _, ok := byName[dep]; !ok {
				return nil, newError(m.Name, "resolve", fmt.Sprintf("unknown dependency %q", dep), nil)
			}
		}
	}

	// edge d -> p for each d in p.Dependencies: d must be loaded before p.
	inDegree := make(map[string]int, len(byName))
	dependents := make(map[string][]string, len(byName))
	for name := range byName {
		inDegree[name] = 0
	}
	for _, m := range byName {
		inDegree[m.Name] = len(uniqueStrings(m.Dependencies))
		for _, dep := range uniqueStrings(m.Dependencies) {
			dependents[dep] = append(dependents[dep], m.Name)
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	var sorted []*Manifest
	remaining := len(byName)
	for remaining > 0 {
		if len(ready) == 0 {
			return nil, cycleError(byName, inDegree)
		}
		sort.Slice(ready, func(i, j int) bool {
			a, b := byName[ready[i]], byName[ready[j]]
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
			return order[a.Name] < order[b.Name]
		})
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, byName[next])
		remaining--

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	return sorted, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// cycleError builds a cycle report naming every plugin still blocked once
// the ready queue has run dry — those are exactly the nodes participating
// in (or downstream of) a cycle.
func cycleError(byName map[string]*Manifest, inDegree map[string]int) error {
	var involved []string
	for name, deg := range inDegree {
		if deg > 0 {
			involved = append(involved, name)
		}
	}
	sort.Strings(involved)
	return newError(strings.Join(involved, ", "), "resolve", "dependency cycle detected", nil)
}
