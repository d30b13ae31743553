// Package bank holds the in-session question collection as a sequence of
// immutable snapshots.
package bank

import (
	"slices"
	"sort"

	"github.com/abhisek/latihan/internal/question"
)

// Snapshot is one immutable version of the collection. Accessors return
// copies; a Snapshot is safe to share between goroutines.
type Snapshot struct {
	version int
	records []question.Record
	index   map[string]int
}

func newSnapshot(version int, records []question.Record) *Snapshot {
	idx := make(map[string]int, len(records))
	for i, r := range records {
		idx[r.ID] = i
	}
	return &Snapshot{version: version, records: records, index: idx}
}

// Version increases by one with every mutation.
func (s *Snapshot) Version() int { return s.version }

// Len counts all records, deleted ones included.
func (s *Snapshot) Len() int { return len(s.records) }

// Get returns the record with id.
func (s *Snapshot) Get(id string) (question.Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return question.Record{}, false
	}
	return s.records[i].Clone(), true
}

// All returns every record in insertion order, deleted ones included.
func (s *Snapshot) All() []question.Record {
	return s.filter(func(question.Record) bool { return true })
}

// Active returns the records not flagged as deleted, in insertion order.
func (s *Snapshot) Active() []question.Record {
	return s.filter(func(r question.Record) bool { return !r.IsDeleted })
}

// Deleted returns the soft-deleted records.
func (s *Snapshot) Deleted() []question.Record {
	return s.filter(func(r question.Record) bool { return r.IsDeleted })
}

// ByToken returns the active records of a quiz token sorted by Order.
// The token is matched after upper-casing.
func (s *Snapshot) ByToken(token string) []question.Record {
	token = question.NormalizeToken(token)
	out := s.filter(func(r question.Record) bool { return !r.IsDeleted && r.QuizToken == token })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// NeedingRepair returns the active records whose options are missing.
func (s *Snapshot) NeedingRepair() []question.Record {
	return s.filter(func(r question.Record) bool { return !r.IsDeleted && r.NeedsRepair() })
}

// Tokens lists the distinct tokens of active records in first-seen order.
func (s *Snapshot) Tokens() []string {
	var out []string
	for _, r := range s.records {
		if !r.IsDeleted && !slices.Contains(out, r.QuizToken) {
			out = append(out, r.QuizToken)
		}
	}
	return out
}

// TeachingMaterial returns the material attached to a token, if any.
func (s *Snapshot) TeachingMaterial(token string) string {
	token = question.NormalizeToken(token)
	for _, r := range s.records {
		if !r.IsDeleted && r.QuizToken == token && r.TeachingMaterial != "" {
			return r.TeachingMaterial
		}
	}
	return ""
}

func (s *Snapshot) filter(keep func(question.Record) bool) []question.Record {
	out := make([]question.Record, 0, len(s.records))
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
