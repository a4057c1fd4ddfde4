package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-picker/pkg/record"
)

// Static serves a fixed list of records.
type Static struct {
	records []record.Record
}

var _ Fetcher = (*Static)(nil)

// NewStatic copies records into a static catalog.
func NewStatic(records []record.Record) *Static {
	return &Static{records: append([]record.Record(nil), records...)}
}

// Fetch returns the records matching filter.
func (s *Static) Fetch(ctx context.Context, filter Filter) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Match(s.records, filter), nil
}

// LoadRecords decodes a YAML (or JSON) sequence of records.
func LoadRecords(r io.Reader) ([]record.Record, error) {
	if r == nil {
		return nil, fmt.Errorf("catalog: missing reader")
	}
	var records []any
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: decode records: %w", err)
	}
	out := make([]record.Record, len(records))
	copy(out, records)
	return out, nil
}

// LoadRecordsFile reads records from a YAML or JSON file.
func LoadRecordsFile(path string) ([]record.Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("catalog: open records: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRecords(f)
}
