package plugin

import "testing"

func names(ms []*Manifest) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestResolveOrderRespectsDependencies(t *testing.T) {
	a := &Manifest{Name: "a"}
	b := &Manifest{Name: "b", Dependencies: []string{"a"}}
	c := &Manifest{Name: "c", Dependencies: []string{"b"}}

	sorted, err := resolveOrder([]*Manifest{c, b, a})
	if err != nil {
		t.Fatalf("resolveOrder: %v", err)
	}
	order := names(sorted)
	if indexOf(order, "a") > indexOf(order, "b") || indexOf(order, "b") > indexOf(order, "c") {
		t.Fatalf("dependency order violated: %v", order)
	}
}

func TestResolveOrderPriorityTiebreak(t *testing.T) {
	low := &Manifest{Name: "low", Priority: 1}
	high := &Manifest{Name: "high", Priority: 10}

	sorted, err := resolveOrder([]*Manifest{low, high})
	if err != nil {
		t.Fatalf("resolveOrder: %v", err)
	}
	if sorted[0].Name != "high" {
		t.Fatalf("expected high priority first, got %v", names(sorted))
	}
}

func TestResolveOrderPriorityNeverBeatsDependency(t *testing.T) {
	dep := &Manifest{Name: "dep", Priority: 0}
	dependent := &Manifest{Name: "dependent", Priority: 100, Dependencies: []string{"dep"}}

	sorted, err := resolveOrder([]*Manifest{dependent, dep})
	if err != nil {
		t.Fatalf("resolveOrder: %v", err)
	}
	if sorted[0].Name != "dep" {
		t.Fatalf("priority incorrectly reordered ahead of dependency: %v", names(sorted))
	}
}

func TestResolveOrderCycleNamesEveryInvolvedPlugin(t *testing.T) {
	a := &Manifest{Name: "a", Dependencies: []string{"b"}}
	b := &Manifest{Name: "b", Dependencies: []string{"a"}}

	_, err := resolveOrder([]*Manifest{a, b})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pe.Plugin != "a, b" {
		t.Fatalf("expected both cycle members named, got %q", pe.Plugin)
	}
}

func TestResolveOrderUnknownDependencyRejected(t *testing.T) {
	a := &Manifest{Name: "a", Dependencies: []string{"missing"}}
	_, err := resolveOrder([]*Manifest{a})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}
