// Package grading compares a submitted answer with a question's correct
// answer using the equivalence rule of the question's type.
package grading

import (
	"slices"
	"strings"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

// Verdict is the outcome of grading one submission.
type Verdict struct {
	Correct bool

	// NeedsReview is set for ungraded types and for records whose type is
	// not recognized; Correct is true in both cases.
	NeedsReview bool
}

// Strategy decides whether submitted matches correct. Both values have
// already been checked to carry the type's legal shape.
type Strategy func(correct, submitted answer.Value) bool

var strategies = map[answer.Type]Strategy{
	answer.TypeSingleChoice: exactIndex,
	answer.TypeMultiSelect:  sameSet,
	answer.TypeTrueFalse:    samePositions,
	answer.TypeMatch:        samePositions,
	answer.TypeFillIn:       sameText,
}

// Grade returns the verdict for submitted against rec's correct answer.
// It never fails: essays and unknown types pass with NeedsReview, and a
// submission of the wrong shape for a graded type is incorrect.
func Grade(rec question.Record, submitted answer.Value) Verdict {
	spec, ok := answer.Lookup(rec.Type)
	if !ok || !spec.Graded {
		return Verdict{Correct: true, NeedsReview: true}
	}
	if !answer.IsLegal(rec.Type, submitted) || !answer.IsLegal(rec.Type, rec.CorrectAnswer) {
		return Verdict{}
	}
	strategy, ok := strategies[rec.Type]
	if !ok {
		return Verdict{Correct: true, NeedsReview: true}
	}
	return Verdict{Correct: strategy(rec.CorrectAnswer, submitted)}
}

func exactIndex(correct, submitted answer.Value) bool {
	a, _ := correct.Index()
	b, _ := submitted.Index()
	return a == b
}

func sameSet(correct, submitted answer.Value) bool {
	a, b := correct.Indices(), submitted.Indices()
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

func samePositions(correct, submitted answer.Value) bool {
	return slices.Equal(correct.Bools(), submitted.Bools())
}

func sameText(correct, submitted answer.Value) bool {
	a, _ := correct.Text()
	b, _ := submitted.Text()
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
