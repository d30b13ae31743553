package bank

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

var (
	ErrNotFound      = errors.New("question not found")
	ErrDuplicateID   = errors.New("duplicate question id")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrInvalidRecord = errors.New("invalid question")
)

const defaultUndoDepth = 50

// Session owns the current snapshot. Every mutation builds a new snapshot
// from the current one and swaps it in whole; readers holding an older
// snapshot never observe a partial update.
type Session struct {
	mu      sync.Mutex
	current *Snapshot
	undo    []*Snapshot
	depth   int
	logger  *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for mutation summaries.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithUndoDepth bounds the undo stack.
func WithUndoDepth(n int) Option {
	return func(s *Session) { s.depth = n }
}

// NewSession returns an empty collection at version 0.
func NewSession(opts ...Option) *Session {
	s := &Session{
		current: newSnapshot(0, nil),
		depth:   defaultUndoDepth,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns the current version.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// mutate applies fn to a private copy of the current records and installs
// the result as the next version. fn's error leaves the session untouched.
func (s *Session) mutate(op string, fn func(records []question.Record) ([]question.Record, error)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	next, err := fn(slices.Clone(prev.records))
	if err != nil {
		return prev, err
	}

	s.current = newSnapshot(prev.version+1, next)
	s.undo = append(s.undo, prev)
	if s.depth > 0 && len(s.undo) > s.depth {
		s.undo = s.undo[len(s.undo)-s.depth:]
	}
	s.logger.Debug("bank mutated",
		zap.String("op", op),
		zap.Int("version", s.current.version),
		zap.Int("records", len(next)))
	return s.current, nil
}

// Undo reinstates the snapshot before the last mutation. The version keeps
// increasing so a stale reader can tell that something changed.
func (s *Session) Undo() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.current, ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.current = newSnapshot(s.current.version+1, prev.records)
	return s.current, nil
}

// Append adds records. Records without an ID get one. The whole batch is
// rejected if any ID is already present.
func (s *Session) Append(records ...question.Record) (*Snapshot, error) {
	return s.mutate("append", func(cur []question.Record) ([]question.Record, error) {
		seen := make(map[string]bool, len(cur)+len(records))
		for _, r := range cur {
			seen[r.ID] = true
		}
		for _, r := range records {
			r = r.Clone()
			if r.ID == "" {
				r.ID = question.NewID(question.PrefixManual)
			}
			if seen[r.ID] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
			}
			if err := admit(&r); err != nil {
				return nil, err
			}
			seen[r.ID] = true
			cur = append(cur, r)
		}
		return cur, nil
	})
}

// Replace swaps the record with the same ID. The replacement is checked
// the same way Append checks new records.
func (s *Session) Replace(rec question.Record) (*Snapshot, error) {
	return s.update("replace", rec.ID, func(question.Record) (question.Record, error) {
		r := rec.Clone()
		if err := admit(&r); err != nil {
			return question.Record{}, err
		}
		return r, nil
	})
}

// admit canonicalizes the token and pads a short statement answer, then
// rejects a record whose answer shape or range does not fit its type.
func admit(r *question.Record) error {
	r.QuizToken = question.NormalizeToken(r.QuizToken)
	r.CorrectAnswer = answer.Pad(r.CorrectAnswer, len(r.Options))
	err := r.Validate()
	if err == nil {
		return nil
	}
	var de *answer.DecodeError
	if !errors.As(err, &de) {
		de = &answer.DecodeError{Type: r.Type, Raw: r.CorrectAnswer.String(), Reason: "unknown type", Err: err}
	}
	return fmt.Errorf("%w %s: %w", ErrInvalidRecord, r.ID, de)
}

// SoftDelete flags a record as deleted.
func (s *Session) SoftDelete(id string) (*Snapshot, error) {
	return s.update("delete", id, func(r question.Record) (question.Record, error) {
		r.IsDeleted = true
		return r, nil
	})
}

// Restore clears the deleted flag.
func (s *Session) Restore(id string) (*Snapshot, error) {
	return s.update("restore", id, func(r question.Record) (question.Record, error) {
		r.IsDeleted = false
		return r, nil
	})
}

// QuickUpdate changes only the order and token of a record.
func (s *Session) QuickUpdate(id string, order int, token string) (*Snapshot, error) {
	return s.update("quick-update", id, func(r question.Record) (question.Record, error) {
		r.Order = order
		r.QuizToken = question.NormalizeToken(token)
		return r, nil
	})
}

// ChangeType converts a record to t, resetting its answer to t's default.
func (s *Session) ChangeType(id string, t answer.Type) (*Snapshot, error) {
	return s.update("change-type", id, func(r question.Record) (question.Record, error) {
		return r.WithType(t)
	})
}

// AttachMaterial sets the teaching material on every active record of a
// token and returns how many records were updated.
func (s *Session) AttachMaterial(token, material string) (int, error) {
	token = question.NormalizeToken(token)
	var n int
	_, err := s.mutate("attach-material", func(cur []question.Record) ([]question.Record, error) {
		for i, r := range cur {
			if r.IsDeleted || r.QuizToken != token {
				continue
			}
			r = r.Clone()
			r.TeachingMaterial = material
			cur[i] = r
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: token %s", ErrNotFound, token)
		}
		return cur, nil
	})
	return n, err
}

func (s *Session) update(op, id string, fn func(question.Record) (question.Record, error)) (*Snapshot, error) {
	return s.mutate(op, func(cur []question.Record) ([]question.Record, error) {
		i := slices.IndexFunc(cur, func(r question.Record) bool { return r.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		r, err := fn(cur[i].Clone())
		if err != nil {
			return nil, err
		}
		r.ID = id
		cur[i] = r
		return cur, nil
	})
}
