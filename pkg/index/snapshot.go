package index

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-picker/pkg/record"
)

var (
	// ErrMissingID reports a record whose id path is absent or empty.
	ErrMissingID = errors.New("index: record id missing")
	// ErrDuplicateID reports two records sharing an id within one snapshot.
	ErrDuplicateID = errors.New("index: duplicate record id")
)

// DefaultIDPath is used when no id path is configured.
const DefaultIDPath = "id"

// Candidate pairs a record with its id.
type Candidate struct {
	ID     string
	Record record.Record
}

// Snapshot is an immutable, ordered candidate set produced by one fetch.
type Snapshot struct {
	candidates []Candidate
	ids        map[string]int
}

// NewSnapshot extracts ids from records using idPath (DefaultIDPath when
// empty). Order is preserved.
func NewSnapshot(records []record.Record, idPath string) (*Snapshot, error) {
	if idPath == "" {
		idPath = DefaultIDPath
	}
	path, err := record.ParsePath(idPath)
	if err != nil {
		return nil, fmt.Errorf("index: id path: %w", err)
	}

	candidates := make([]Candidate, 0, len(records))
	for i, rec := range records {
		id, ok := record.Resolve(rec, path)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: record %d at %q", ErrMissingID, i, idPath)
		}
		candidates = append(candidates, Candidate{ID: id, Record: rec})
	}
	return FromCandidates(candidates)
}

// FromCandidates builds a snapshot from pre-identified candidates.
func FromCandidates(candidates []Candidate) (*Snapshot, error) {
	snapshot := &Snapshot{
		candidates: append([]Candidate(nil), candidates...),
		ids:        make(map[string]int, len(candidates)),
	}
	for i, candidate := range snapshot.candidates {
		if candidate.ID == "" {
			return nil, fmt.Errorf("%w: candidate %d", ErrMissingID, i)
		}
		if _, exists := snapshot.ids[candidate.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, candidate.ID)
		}
		snapshot.ids[candidate.ID] = i
	}
	return snapshot, nil
}

// Len reports the number of candidates.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candidates)
}

// Candidates returns a copy of the candidate list.
func (s *Snapshot) Candidates() []Candidate {
	if s == nil {
		return nil
	}
	return append([]Candidate(nil), s.candidates...)
}

// Get returns the record for id.
func (s *Snapshot) Get(id string) (record.Record, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.ids[id]
	if !ok {
		return nil, false
	}
	return s.candidates[i].Record, true
}

// Contains reports whether id belongs to the snapshot.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.Get(id)
	return ok
}
