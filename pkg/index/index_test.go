package index

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/template"
)

func users() []record.Record {
	return []record.Record{
		map[string]any{"id": "u1", "name": "Ann", "dept": "Eng"},
		map[string]any{"id": "u2", "name": "Bea", "dept": "Eng"},
		map[string]any{"id": "u3", "name": "Cal", "dept": "Ops"},
	}
}

func TestBuildUniqueLabels(t *testing.T) {
	t.Parallel()

	snapshot, err := NewSnapshot(users(), "")
	if err != nil {
		t.Fatalf("NewSnapshot returned error: %v", err)
	}
	idx := Build(template.MustCompile("{{name}} ({{dept}})"), snapshot)

	res := idx.Lookup("Ann (Eng)")
	if id, ok := res.ID(); !ok || id != "u1" {
		t.Fatalf("expected unique u1, got %+v", res)
	}
	if res := idx.Lookup("Zed (Eng)"); res.Kind != Unknown {
		t.Fatalf("expected unknown, got %v", res.Kind)
	}
	if len(idx.Ambiguous()) != 0 {
		t.Fatalf("expected no ambiguous labels, got %v", idx.Ambiguous())
	}
	want := []string{"Ann (Eng)", "Bea (Eng)", "Cal (Ops)"}
	if diff := cmp.Diff(want, idx.Labels()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDetectsCollisions(t *testing.T) {
	t.Parallel()

	snapshot, err := NewSnapshot(users(), "id")
	if err != nil {
		t.Fatalf("NewSnapshot returned error: %v", err)
	}
	idx := Build(template.MustCompile("{{dept}}"), snapshot)

	res := idx.Lookup("Eng")
	if res.Kind != Ambiguous {
		t.Fatalf("expected ambiguous, got %v", res.Kind)
	}
	if diff := cmp.Diff([]string{"u1", "u2"}, res.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := res.ID(); ok {
		t.Fatalf("ambiguous result must not yield a single id")
	}
	if diff := cmp.Diff([]string{"Eng"}, idx.Ambiguous()); diff != "" {
		t.Fatalf("ambiguous labels mismatch (-want +got):\n%s", diff)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 distinct labels, got %d", idx.Len())
	}
}

func TestSnapshotValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSnapshot([]record.Record{map[string]any{"name": "no id"}}, "id")
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	_, err = NewSnapshot([]record.Record{
		map[string]any{"id": "a"},
		map[string]any{"id": "a"},
	}, "id")
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	snapshot, err := NewSnapshot([]record.Record{
		map[string]any{"meta": map[string]any{"key": 7}},
	}, "meta.key")
	if err != nil {
		t.Fatalf("NewSnapshot returned error: %v", err)
	}
	if !snapshot.Contains("7") {
		t.Fatalf("expected nested numeric id to be canonicalised to \"7\"")
	}
}

func TestIndexBoundToSnapshot(t *testing.T) {
	t.Parallel()

	tpl := template.MustCompile("{{name}}")
	first, _ := NewSnapshot(users()[:1], "id")
	second, _ := NewSnapshot(users()[1:], "id")

	oldIdx := Build(tpl, first)
	newIdx := Build(tpl, second)

	if !oldIdx.Contains("u1") || oldIdx.Contains("u2") {
		t.Fatalf("old index must only know the first snapshot")
	}
	if newIdx.Contains("u1") || !newIdx.Contains("u2") {
		t.Fatalf("new index must only know the second snapshot")
	}
	if oldIdx.Lookup("Bea").Kind != Unknown {
		t.Fatalf("old index must not see records from a later snapshot")
	}
}

func TestNilIndexIsEmpty(t *testing.T) {
	t.Parallel()

	var idx *Index
	if idx.Lookup("x").Kind != Unknown || idx.Contains("x") || idx.Len() != 0 {
		t.Fatalf("nil index should behave as empty")
	}
}
