package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

func rec(t answer.Type, opts []string, v answer.Value) question.Record {
	return question.Record{ID: "q", Type: t, Text: "soal", Options: opts, CorrectAnswer: v, QuizToken: "A"}
}

var abc = []string{"a", "b", "c"}

func TestInteraction_SingleChoiceLifecycle(t *testing.T) {
	in := NewInteraction(rec(answer.TypeSingleChoice, abc, answer.SingleIndex(1)))
	assert.Equal(t, Unanswered, in.State())

	_, err := in.Check()
	assert.ErrorIs(t, err, ErrNotAnswered)

	require.NoError(t, in.Select(0))
	require.NoError(t, in.Select(1))
	assert.Equal(t, Answered, in.State())

	v, err := in.Check()
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.Equal(t, Checked, in.State())

	got, ok := in.Verdict()
	assert.True(t, ok)
	assert.True(t, got.Correct)

	assert.ErrorIs(t, in.Select(2), ErrLocked)
	_, err = in.Check()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestInteraction_InputErrors(t *testing.T) {
	in := NewInteraction(rec(answer.TypeSingleChoice, abc, answer.SingleIndex(0)))
	assert.ErrorIs(t, in.Select(3), ErrOutOfRange)
	assert.ErrorIs(t, in.Select(-1), ErrOutOfRange)
	assert.ErrorIs(t, in.Toggle(0), ErrWrongShape)
	assert.ErrorIs(t, in.Mark(0, true), ErrWrongShape)
	assert.ErrorIs(t, in.Type("x"), ErrWrongShape)
	assert.Equal(t, Unanswered, in.State())
}

func TestInteraction_MultiSelectOrderIndependent(t *testing.T) {
	in := NewInteraction(rec(answer.TypeMultiSelect, abc, answer.IndexSet(0, 2)))
	require.NoError(t, in.Toggle(2))
	require.NoError(t, in.Toggle(1))
	require.NoError(t, in.Toggle(0))
	require.NoError(t, in.Toggle(1))
	assert.Equal(t, []int{0, 2}, in.Submitted().Indices())

	v, err := in.Check()
	require.NoError(t, err)
	assert.True(t, v.Correct)
}

func TestInteraction_UnmarkedStatementIsMismatch(t *testing.T) {
	// The correct value of the unmarked statement is false, which is what
	// an unmarked entry reads as; it must still be graded wrong.
	in := NewInteraction(rec(answer.TypeTrueFalse, abc, answer.BoolSequence(true, false, false)))
	require.NoError(t, in.Mark(0, true))
	require.NoError(t, in.Mark(1, false))

	v, err := in.Check()
	require.NoError(t, err)
	assert.False(t, v.Correct)
}

func TestInteraction_AllMarked(t *testing.T) {
	in := NewInteraction(rec(answer.TypeMatch, abc, answer.BoolSequence(true, false, true)))
	require.NoError(t, in.Mark(0, true))
	require.NoError(t, in.Mark(1, true))
	require.NoError(t, in.Mark(1, false))
	require.NoError(t, in.Mark(2, true))
	assert.ErrorIs(t, in.Mark(3, true), ErrOutOfRange)

	v, err := in.Check()
	require.NoError(t, err)
	assert.True(t, v.Correct)
}

func TestInteraction_FreeText(t *testing.T) {
	in := NewInteraction(rec(answer.TypeFillIn, nil, answer.FreeText("Jakarta")))
	require.NoError(t, in.Type("  jakarta "))
	v, err := in.Check()
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.False(t, v.NeedsReview)

	essay := NewInteraction(rec(answer.TypeEssay, nil, answer.FreeText("")))
	require.NoError(t, essay.Type("jawaban panjang"))
	v, err = essay.Check()
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.True(t, v.NeedsReview)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unanswered", Unanswered.String())
	assert.Equal(t, "answered", Answered.String())
	assert.Equal(t, "checked", Checked.String())
}
