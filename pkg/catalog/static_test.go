package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-picker/pkg/record"
)

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i], _ = record.Resolve(rec, record.Path{"id"})
	}
	return out
}

func fixtures() []record.Record {
	return []record.Record{
		map[string]any{"id": "u1", "name": "Ann", "dept": "Eng"},
		map[string]any{"id": "u2", "name": "Joanna", "dept": "Eng"},
		map[string]any{"id": "u3", "name": "Bea", "dept": "Ops"},
	}
}

func TestMatchPrefixFirst(t *testing.T) {
	t.Parallel()

	got := Match(fixtures(), Filter{Query: "an", Fields: []string{"name"}})
	if diff := cmp.Diff([]string{"u1", "u2"}, ids(got)); diff != "" {
		t.Fatalf("unexpected matches (-want +got):\n%s", diff)
	}

	got = Match(fixtures(), Filter{Query: "ANNA", Fields: []string{"name"}})
	if diff := cmp.Diff([]string{"u2"}, ids(got)); diff != "" {
		t.Fatalf("unexpected case-insensitive matches (-want +got):\n%s", diff)
	}

	got = Match(fixtures(), Filter{Query: "ops"})
	if diff := cmp.Diff([]string{"u3"}, ids(got)); diff != "" {
		t.Fatalf("unexpected whole-record matches (-want +got):\n%s", diff)
	}
}

func TestMatchEmptyQueryAndLimit(t *testing.T) {
	t.Parallel()

	got := Match(fixtures(), Filter{Limit: 2})
	if diff := cmp.Diff([]string{"u1", "u2"}, ids(got)); diff != "" {
		t.Fatalf("unexpected limited matches (-want +got):\n%s", diff)
	}
}

func TestStaticFetch(t *testing.T) {
	t.Parallel()

	static := NewStatic(fixtures())
	got, err := static.Fetch(context.Background(), Filter{Query: "bea", Fields: []string{"name"}})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"u3"}, ids(got)); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := static.Fetch(ctx, Filter{}); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestLoadRecords(t *testing.T) {
	t.Parallel()

	records, err := LoadRecords(strings.NewReader(`
- id: u1
  name: Ann
  tags: [eng, lead]
- {"id": "u2", "name": "Bea"}
`))
	if err != nil {
		t.Fatalf("LoadRecords returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"u1", "u2"}, ids(records)); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
	if got, _ := record.Resolve(records[0], record.MustParsePath("tags.1")); got != "lead" {
		t.Fatalf("expected nested sequence to decode, got %q", got)
	}

	empty, err := LoadRecords(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty records, got %v (%v)", empty, err)
	}
}
