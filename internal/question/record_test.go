package question

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/latihan/internal/answer"
)

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "UTS-7A", NormalizeToken("  uts-7a "))
	assert.Equal(t, DefaultToken, NormalizeToken(""))
	assert.Equal(t, DefaultToken, NormalizeToken("   "))
}

func TestTrimOptions(t *testing.T) {
	assert.Equal(t, []string{"", "b", "", "d"}, TrimOptions([]string{"", "b", "", "d", " "}))
	assert.Empty(t, TrimOptions([]string{"", "", ""}))
	assert.Empty(t, TrimOptions(nil))
}

func TestNewID_PrefixAndUnique(t *testing.T) {
	a, b := NewID(PrefixAI), NewID(PrefixAI)
	assert.True(t, strings.HasPrefix(a, PrefixAI))
	assert.NotEqual(t, a, b)
}

func TestNormalize(t *testing.T) {
	t.Run("pads bool sequence", func(t *testing.T) {
		r := Record{Type: answer.TypeTrueFalse, Options: []string{"a", "b", "c"}, CorrectAnswer: answer.BoolSequence(true)}
		Normalize(&r)
		assert.Equal(t, []bool{true, false, false}, r.CorrectAnswer.Bools())
		assert.Empty(t, r.Issues)
		assert.Equal(t, DefaultToken, r.QuizToken)
	})

	t.Run("long bool sequence defaults", func(t *testing.T) {
		r := Record{Type: answer.TypeMatch, Options: []string{"a", "b"}, CorrectAnswer: answer.BoolSequence(true, true, true)}
		Normalize(&r)
		assert.Equal(t, []bool{false, false}, r.CorrectAnswer.Bools())
		assert.Len(t, r.Issues, 1)
	})

	t.Run("out of range index defaults", func(t *testing.T) {
		r := Record{Type: answer.TypeSingleChoice, Options: []string{"a", "b"}, CorrectAnswer: answer.SingleIndex(3), QuizToken: "x"}
		Normalize(&r)
		assert.True(t, r.CorrectAnswer.Equal(answer.SingleIndex(0)))
		assert.Equal(t, "X", r.QuizToken)
		assert.NotEmpty(t, r.Issues)
	})

	t.Run("empty options defers check", func(t *testing.T) {
		r := Record{Type: answer.TypeSingleChoice, Options: []string{}, CorrectAnswer: answer.SingleIndex(3)}
		Normalize(&r)
		assert.True(t, r.CorrectAnswer.Equal(answer.SingleIndex(3)))
		assert.True(t, r.NeedsRepair())
		assert.Empty(t, r.Issues)
	})
}

func TestNeedsRepair(t *testing.T) {
	assert.True(t, Record{Type: answer.TypeMultiSelect}.NeedsRepair())
	assert.False(t, Record{Type: answer.TypeMultiSelect, Options: []string{"a"}}.NeedsRepair())
	assert.False(t, Record{Type: answer.TypeEssay}.NeedsRepair())
}

func TestLabels(t *testing.T) {
	r := Record{Type: answer.TypeMatch}
	assert.Equal(t, TFLabels{True: "Sesuai", False: "Tidak Sesuai"}, r.Labels())
	r.TFLabels = &TFLabels{True: "Fakta", False: "Opini"}
	assert.Equal(t, "Fakta", r.Labels().True)
}

func TestClone_IsDeep(t *testing.T) {
	r := Record{Options: []string{"a"}, TFLabels: &TFLabels{True: "Y"}}
	c := r.Clone()
	c.Options[0] = "z"
	c.TFLabels.True = "N"
	assert.Equal(t, "a", r.Options[0])
	assert.Equal(t, "Y", r.TFLabels.True)
}

func TestWithType_ResetsAnswer(t *testing.T) {
	r := Record{Type: answer.TypeSingleChoice, Options: []string{"a", "b", "c"}, CorrectAnswer: answer.SingleIndex(2)}
	c, err := r.WithType(answer.TypeTrueFalse)
	require.NoError(t, err)
	assert.Equal(t, answer.TypeTrueFalse, c.Type)
	assert.Equal(t, []bool{false, false, false}, c.CorrectAnswer.Bools())
	assert.Equal(t, answer.TypeSingleChoice, r.Type)

	_, err = r.WithType("Essay")
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}

func TestRecordJSON_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "1", Type: answer.TypeSingleChoice, Options: []string{"a", "b"}, CorrectAnswer: answer.SingleIndex(1), QuizToken: "T", CreatedAt: now},
		{ID: "2", Type: answer.TypeMultiSelect, Options: []string{"a", "b", "c"}, CorrectAnswer: answer.IndexSet(0, 2), QuizToken: "T", CreatedAt: now},
		{ID: "3", Type: answer.TypeTrueFalse, Options: []string{"a", "b"}, CorrectAnswer: answer.BoolSequence(true, false), QuizToken: "T", CreatedAt: now},
		{ID: "4", Type: answer.TypeFillIn, Options: []string{}, CorrectAnswer: answer.FreeText("air"), QuizToken: "T", CreatedAt: now},
	}
	for _, r := range recs {
		b, err := json.Marshal(r)
		require.NoError(t, err)

		var got Record
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, r.Type, got.Type)
		assert.True(t, r.CorrectAnswer.Equal(got.CorrectAnswer), "%s vs %s", r.CorrectAnswer, got.CorrectAnswer)
		assert.Equal(t, r.Options, got.Options)
		assert.Empty(t, got.Issues)
	}
}

func TestRecordJSON_MalformedAnswerFlagged(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"id":"x","type":"Pilihan Jamak (MCMA)","options":["a","b"],"correctAnswer":"A, B","quizToken":"t"}`), &r)
	require.NoError(t, err)
	assert.True(t, r.CorrectAnswer.Equal(answer.IndexSet()))
	assert.Len(t, r.Issues, 1)
	assert.Equal(t, "T", r.QuizToken)
}

func TestRecordJSON_UnknownType(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"id":"x","type":"Essay"}`), &r)
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}
