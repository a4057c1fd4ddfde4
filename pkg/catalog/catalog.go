// Package catalog provides implementations of the candidate fetch contract
// used by pickers: an in-memory catalog, an HTTP endpoint client and a Redis
// hash-backed catalog.
//
// Fetchers only return records. Rendering, indexing and resolution happen in
// the picker once a complete result is available.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/goliatone/go-picker/pkg/record"
)

// ErrMissingURL is returned when an HTTP fetcher has no endpoint.
var ErrMissingURL = errors.New("catalog: endpoint url is required")

// Filter narrows a fetch. Fields lists the dotted paths the caller will read
// (template paths plus the id path) so remote catalogs can trim payloads.
type Filter struct {
	Query  string
	Fields []string
	Limit  int
	Params map[string]string
}

// Fetcher loads one candidate set.
type Fetcher interface {
	Fetch(ctx context.Context, filter Filter) ([]record.Record, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, filter Filter) ([]record.Record, error)

// Fetch delegates to the underlying function.
func (fn FetcherFunc) Fetch(ctx context.Context, filter Filter) ([]record.Record, error) {
	return fn(ctx, filter)
}

// Match filters records by a case-insensitive substring of the query against
// the canonical value of any requested field (or the whole record when no
// fields are requested). Prefix matches sort first; order is otherwise
// preserved. A zero limit means no limit.
func Match(records []record.Record, filter Filter) []record.Record {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	paths := parseFields(filter.Fields)

	matches := make([]matched, 0, len(records))
	for _, rec := range records {
		if query == "" {
			matches = append(matches, matched{rec: rec})
			continue
		}
		hit, prefix := matchRecord(rec, paths, query)
		if !hit {
			continue
		}
		matches = append(matches, matched{rec: rec, isPrefix: prefix})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	out := make([]record.Record, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out
}

type matched struct {
	rec      record.Record
	isPrefix bool
}

func matchRecord(rec record.Record, paths []record.Path, query string) (bool, bool) {
	values := make([]string, 0, len(paths))
	if len(paths) == 0 {
		values = append(values, record.String(rec))
	}
	for _, path := range paths {
		if value, ok := record.Resolve(rec, path); ok {
			values = append(values, value)
		}
	}

	hit := false
	for _, value := range values {
		lower := strings.ToLower(value)
		if strings.HasPrefix(lower, query) {
			return true, true
		}
		if strings.Contains(lower, query) {
			hit = true
		}
	}
	return hit, false
}

func parseFields(fields []string) []record.Path {
	out := make([]record.Path, 0, len(fields))
	for _, field := range fields {
		path, err := record.ParsePath(field)
		if err != nil {
			continue
		}
		out = append(out, path)
	}
	return out
}
