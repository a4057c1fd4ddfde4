// Package index renders a candidate snapshot once and maps every label back to
// the record ids that produced it.
//
// An Index is bound to the Snapshot it was built from. When the candidate set
// changes a new Index is built; an existing one is never patched.
package index

import (
	"sort"

	"github.com/goliatone/go-picker/pkg/template"
)

// Kind classifies a lookup result.
type Kind int

const (
	// Unknown means no candidate renders to the label.
	Unknown Kind = iota
	// Unique means exactly one candidate renders to the label.
	Unique
	// Ambiguous means several candidates render to the label.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Result is the outcome of Lookup. IDs holds one id for Unique and every
// colliding id, in snapshot order, for Ambiguous.
type Result struct {
	Kind Kind
	IDs  []string
}

// ID returns the single id of a Unique result.
func (r Result) ID() (string, bool) {
	if r.Kind != Unique || len(r.IDs) != 1 {
		return "", false
	}
	return r.IDs[0], true
}

// Index maps labels to record ids for one snapshot.
type Index struct {
	snapshot *Snapshot
	labels   []string
	byLabel  map[string][]string
}

// Build renders every candidate in snapshot with tpl.
func Build(tpl *template.Compiled, snapshot *Snapshot) *Index {
	idx := &Index{
		snapshot: snapshot,
		byLabel:  make(map[string][]string),
	}
	for _, candidate := range snapshot.Candidates() {
		label := tpl.Render(candidate.Record)
		idx.labels = append(idx.labels, label)
		idx.byLabel[label] = append(idx.byLabel[label], candidate.ID)
	}
	return idx
}

// Lookup classifies label.
func (i *Index) Lookup(label string) Result {
	if i == nil {
		return Result{Kind: Unknown}
	}
	ids := i.byLabel[label]
	switch len(ids) {
	case 0:
		return Result{Kind: Unknown}
	case 1:
		return Result{Kind: Unique, IDs: []string{ids[0]}}
	default:
		return Result{Kind: Ambiguous, IDs: append([]string(nil), ids...)}
	}
}

// Contains reports whether id is part of the snapshot behind the index.
func (i *Index) Contains(id string) bool {
	if i == nil {
		return false
	}
	return i.snapshot.Contains(id)
}

// Snapshot returns the snapshot the index was built from.
func (i *Index) Snapshot() *Snapshot {
	if i == nil {
		return nil
	}
	return i.snapshot
}

// Labels returns the rendered label of each candidate, in snapshot order.
func (i *Index) Labels() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.labels...)
}

// Len reports the number of distinct labels.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byLabel)
}

// Ambiguous lists labels shared by more than one candidate, sorted.
func (i *Index) Ambiguous() []string {
	if i == nil {
		return nil
	}
	var out []string
	for label, ids := range i.byLabel {
		if len(ids) > 1 {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}
