// Package testsupport holds fixture and golden-file helpers shared by package
// tests.
package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/record"
)

// MustLoadRecords reads a YAML or JSON record fixture.
func MustLoadRecords(t *testing.T, path string) []record.Record {
	t.Helper()

	records, err := catalog.LoadRecordsFile(path)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	return records
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
// Returns true if the golden was written.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// AssertGoldenJSON compares the indented JSON encoding of got with the golden
// file at path, rewriting the file instead when UPDATE_GOLDENS is set.
func AssertGoldenJSON(t *testing.T, path string, got any) {
	t.Helper()

	if WriteGolden(t, path, got) {
		return
	}
	payload, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	want := strings.TrimSpace(string(MustReadGolden(t, path)))
	if diff := cmp.Diff(want, strings.TrimSpace(string(payload))); diff != "" {
		t.Fatalf("golden mismatch for %s (-want +got):\n%s", path, diff)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
