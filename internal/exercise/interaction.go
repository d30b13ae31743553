// Package exercise delivers the questions of one token and drives the
// per-question answer/check cycle.
package exercise

import (
	"errors"
	"slices"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/grading"
	"github.com/abhisek/latihan/internal/question"
)

var (
	ErrNotAnswered = errors.New("question has not been answered")
	ErrLocked      = errors.New("question has already been checked")
	ErrOutOfRange  = errors.New("index out of range")
	ErrWrongShape  = errors.New("input does not match the question type")
)

// State is the phase of one displayed question.
type State int

const (
	Unanswered State = iota
	Answered
	Checked
)

func (s State) String() string {
	switch s {
	case Unanswered:
		return "unanswered"
	case Answered:
		return "answered"
	case Checked:
		return "checked"
	default:
		return "unknown"
	}
}

// mark is the tri-state of one boolean statement.
type mark int8

const (
	unmarked mark = iota
	markedTrue
	markedFalse
)

// Interaction holds the user's input for one question until it is checked.
type Interaction struct {
	rec   question.Record
	shape answer.Kind
	state State

	index int
	set   []int
	marks []mark
	text  string

	verdict grading.Verdict
}

// NewInteraction starts an Unanswered interaction for rec.
func NewInteraction(rec question.Record) *Interaction {
	in := &Interaction{rec: rec, shape: answer.KindFreeText}
	if spec, ok := answer.Lookup(rec.Type); ok {
		in.shape = spec.Shape
	}
	if in.shape == answer.KindBoolSequence {
		in.marks = make([]mark, len(rec.Options))
	}
	return in
}

func (in *Interaction) Record() question.Record { return in.rec }
func (in *Interaction) State() State             { return in.state }

// Verdict returns the grading result; ok is false until Check succeeds.
func (in *Interaction) Verdict() (v grading.Verdict, ok bool) {
	return in.verdict, in.state == Checked
}

// Select picks option i of a single-choice question.
func (in *Interaction) Select(i int) error {
	if err := in.accept(answer.KindSingleIndex, i); err != nil {
		return err
	}
	in.index = i
	in.state = Answered
	return nil
}

// Toggle flips option i of a multi-select question.
func (in *Interaction) Toggle(i int) error {
	if err := in.accept(answer.KindIndexSet, i); err != nil {
		return err
	}
	if pos := slices.Index(in.set, i); pos >= 0 {
		in.set = slices.Delete(in.set, pos, pos+1)
	} else {
		in.set = append(in.set, i)
	}
	in.state = Answered
	return nil
}

// Mark sets statement i of a true/false or match question.
func (in *Interaction) Mark(i int, value bool) error {
	if err := in.accept(answer.KindBoolSequence, i); err != nil {
		return err
	}
	in.marks[i] = markedFalse
	if value {
		in.marks[i] = markedTrue
	}
	in.state = Answered
	return nil
}

// Type sets the free-text response of a fill-in or essay question.
func (in *Interaction) Type(text string) error {
	if err := in.accept(answer.KindFreeText, 0); err != nil {
		return err
	}
	in.text = text
	in.state = Answered
	return nil
}

func (in *Interaction) accept(shape answer.Kind, i int) error {
	if in.state == Checked {
		return ErrLocked
	}
	if in.shape != shape {
		return ErrWrongShape
	}
	if shape != answer.KindFreeText && (i < 0 || i >= len(in.rec.Options)) {
		return ErrOutOfRange
	}
	return nil
}

// Submitted returns the current input as an answer value. Unmarked
// statements read as false.
func (in *Interaction) Submitted() answer.Value {
	switch in.shape {
	case answer.KindSingleIndex:
		return answer.SingleIndex(in.index)
	case answer.KindIndexSet:
		return answer.IndexSet(in.set...)
	case answer.KindBoolSequence:
		bs := make([]bool, len(in.marks))
		for i, m := range in.marks {
			bs[i] = m == markedTrue
		}
		return answer.BoolSequence(bs...)
	default:
		return answer.FreeText(in.text)
	}
}

// Check grades the input and locks the interaction.
func (in *Interaction) Check() (grading.Verdict, error) {
	switch in.state {
	case Unanswered:
		return grading.Verdict{}, ErrNotAnswered
	case Checked:
		return grading.Verdict{}, ErrLocked
	}

	v := grading.Grade(in.rec, in.Submitted())
	if in.shape == answer.KindBoolSequence && slices.Contains(in.marks, unmarked) && !v.NeedsReview {
		v.Correct = false
	}
	in.verdict = v
	in.state = Checked
	return v, nil
}
