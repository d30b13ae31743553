package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

func rec(t answer.Type, correct answer.Value, options int) question.Record {
	return question.Record{Type: t, CorrectAnswer: correct, Options: make([]string, options)}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		rec       question.Record
		submitted answer.Value
		want      Verdict
	}{
		{"single correct", rec(answer.TypeSingleChoice, answer.SingleIndex(2), 4), answer.SingleIndex(2), Verdict{Correct: true}},
		{"single wrong", rec(answer.TypeSingleChoice, answer.SingleIndex(2), 4), answer.SingleIndex(1), Verdict{}},
		{"multi order independent", rec(answer.TypeMultiSelect, answer.IndexSet(0, 2), 4), answer.IndexSet(2, 0), Verdict{Correct: true}},
		{"multi subset", rec(answer.TypeMultiSelect, answer.IndexSet(0, 2), 4), answer.IndexSet(0), Verdict{}},
		{"multi both empty", rec(answer.TypeMultiSelect, answer.IndexSet(), 4), answer.IndexSet(), Verdict{Correct: true}},
		{"bools positional", rec(answer.TypeTrueFalse, answer.BoolSequence(true, false, true), 3), answer.BoolSequence(true, false, true), Verdict{Correct: true}},
		{"bools one off", rec(answer.TypeMatch, answer.BoolSequence(true, false, true), 3), answer.BoolSequence(true, true, true), Verdict{}},
		{"bools length differs", rec(answer.TypeMatch, answer.BoolSequence(true, false), 2), answer.BoolSequence(true, false, false), Verdict{}},
		{"fill in folds case and space", rec(answer.TypeFillIn, answer.FreeText("Fotosintesis"), 0), answer.FreeText("  fotoSINTESIS "), Verdict{Correct: true}},
		{"fill in wrong", rec(answer.TypeFillIn, answer.FreeText("air"), 0), answer.FreeText("api"), Verdict{}},
		{"essay always passes", rec(answer.TypeEssay, answer.FreeText("x"), 0), answer.FreeText(""), Verdict{Correct: true, NeedsReview: true}},
		{"unknown type fails open", rec(answer.Type("Esai"), answer.FreeText("x"), 0), answer.FreeText("y"), Verdict{Correct: true, NeedsReview: true}},
		{"wrong shape is incorrect", rec(answer.TypeSingleChoice, answer.SingleIndex(0), 4), answer.IndexSet(0), Verdict{}},
		{"empty submission is incorrect", rec(answer.TypeFillIn, answer.FreeText("air"), 0), answer.Value{}, Verdict{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.rec, tt.submitted))
		})
	}
}

func TestGrade_SetEqualSubmissionsAgree(t *testing.T) {
	r := rec(answer.TypeMultiSelect, answer.IndexSet(1, 3), 5)
	perms := [][]int{{1, 3}, {3, 1}, {3, 1, 3}, {1, 1, 3}}
	for _, p := range perms {
		assert.Equal(t, Grade(r, answer.IndexSet(1, 3)), Grade(r, answer.IndexSet(p...)), "%v", p)
	}
}
