package template

import "testing"

func TestRenderFallback(t *testing.T) {
	t.Parallel()

	compiled := MustCompile("{{a || b}}")

	if got := compiled.Render(map[string]any{"b": "x"}); got != "x" {
		t.Fatalf("expected fallback to b, got %q", got)
	}
	if got := compiled.Render(map[string]any{"a": "", "b": "x"}); got != "x" {
		t.Fatalf("expected empty a to fall back, got %q", got)
	}
	if got := compiled.Render(map[string]any{"a": "y", "b": "x"}); got != "y" {
		t.Fatalf("expected a to win, got %q", got)
	}
	if got := compiled.Render(map[string]any{}); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}
}

func TestRenderScenario(t *testing.T) {
	t.Parallel()

	compiled := MustCompile("{{name}} ({{dept}})")
	u1 := map[string]any{"id": "u1", "name": "Ann", "dept": "Eng"}
	u2 := map[string]any{"id": "u2", "name": "Bea", "dept": "Eng"}

	if got := compiled.Render(u1); got != "Ann (Eng)" {
		t.Fatalf("expected Ann (Eng), got %q", got)
	}
	if got := compiled.Render(u2); got != "Bea (Eng)" {
		t.Fatalf("expected Bea (Eng), got %q", got)
	}
}

func TestRenderNestedAndSequences(t *testing.T) {
	t.Parallel()

	compiled := MustCompile("{{owner.name}}: {{tags}} / {{tags.0}} / {{meta}}")
	rec := map[string]any{
		"owner": map[string]any{"name": "Ann"},
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"z": 1, "a": true},
	}
	want := `Ann: a, b / a / {"a":true,"z":1}`
	if got := compiled.Render(rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRenderIdenticalValuesIdenticalLabels(t *testing.T) {
	t.Parallel()

	compiled := MustCompile("{{dept}}")
	a := compiled.Render(map[string]any{"id": "1", "dept": "Eng"})
	b := compiled.Render(map[string]any{"id": "2", "dept": "Eng"})
	if a != b {
		t.Fatalf("expected identical labels, got %q and %q", a, b)
	}
}
