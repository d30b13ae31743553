package exercise

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/bank"
	"github.com/abhisek/latihan/internal/generate"
	"github.com/abhisek/latihan/internal/grading"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/sheet"
)

var _ FeedbackSource = (*generate.Assistant)(nil)

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func testBank(t *testing.T) *bank.Snapshot {
	t.Helper()
	s := bank.NewSession()
	mk := func(id string, order int, typ answer.Type, opts []string, v answer.Value) question.Record {
		r := rec(typ, opts, v)
		r.ID, r.Order, r.QuizToken = id, order, "UJIAN"
		return r
	}
	deleted := mk("gone", 0, answer.TypeSingleChoice, abc, answer.SingleIndex(0))
	deleted.IsDeleted = true
	other := mk("other", 1, answer.TypeSingleChoice, abc, answer.SingleIndex(0))
	other.QuizToken = "LAIN"

	_, err := s.Append(
		mk("q3", 3, answer.TypeTrueFalse, []string{"p", "q", "r", "s"}, answer.BoolSequence(true, false, true, false)),
		mk("q1", 1, answer.TypeSingleChoice, []string{"a", "b", "c", "d", "e"}, answer.SingleIndex(3)),
		mk("q2", 2, answer.TypeMultiSelect, []string{"a", "b", "c", "d"}, answer.IndexSet(0, 3)),
		mk("q4", 4, answer.TypeEssay, nil, answer.FreeText("")),
		deleted,
		other,
	)
	require.NoError(t, err)
	_, err = s.AttachMaterial("ujian", "# Materi Ujian")
	require.NoError(t, err)
	return s.Snapshot()
}

func noShuffle() sheet.Settings { return sheet.Settings{Duration: 30} }

func TestStart_OrderAndFiltering(t *testing.T) {
	sess, err := Start(testBank(t), "ujian", noShuffle())
	require.NoError(t, err)

	assert.Equal(t, "UJIAN", sess.Token())
	require.Equal(t, 4, sess.Len())
	var ids []string
	for _, q := range sess.Questions() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, ids)
	assert.Equal(t, "# Materi Ujian", sess.TeachingMaterial())
	assert.Equal(t, "q1", sess.Current().Record().ID)
}

func TestStart_TokenNotFound(t *testing.T) {
	_, err := Start(testBank(t), "kosong", noShuffle())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestStart_ShuffleKeepsAnswersGradable(t *testing.T) {
	settings := sheet.Settings{ShuffleQuestions: true, ShuffleOptions: true}
	for seed := uint64(0); seed < 20; seed++ {
		sess, err := Start(testBank(t), "UJIAN", settings, WithRand(rand.New(rand.NewPCG(seed, seed+1))))
		require.NoError(t, err)
		require.Equal(t, 4, sess.Len())

		for _, q := range sess.Questions() {
			// The shuffled key must still point at the same option text.
			switch q.ID {
			case "q1":
				i, _ := q.CorrectAnswer.Index()
				assert.Equal(t, "d", q.Options[i])
			case "q2":
				var got []string
				for _, i := range q.CorrectAnswer.Indices() {
					got = append(got, q.Options[i])
				}
				assert.ElementsMatch(t, []string{"a", "d"}, got)
			case "q3":
				for j, b := range q.CorrectAnswer.Bools() {
					assert.Equal(t, q.Options[j] == "p" || q.Options[j] == "r", b)
				}
			}
			assert.True(t, grading.Grade(q, q.CorrectAnswer).Correct)
		}
	}
}

func TestPermute(t *testing.T) {
	r := rec(answer.TypeSingleChoice, abc, answer.SingleIndex(0))
	r.OptionImages = []string{"ia", "ib", "ic"}

	got := Permute(r, []int{2, 0, 1})
	assert.Equal(t, []string{"c", "a", "b"}, got.Options)
	assert.Equal(t, []string{"ic", "ia", "ib"}, got.OptionImages)
	i, _ := got.CorrectAnswer.Index()
	assert.Equal(t, 1, i)
	assert.Equal(t, abc, r.Options, "input must not be mutated")
}

func TestSession_Navigation(t *testing.T) {
	sess, err := Start(testBank(t), "UJIAN", noShuffle())
	require.NoError(t, err)

	require.NoError(t, sess.Current().Select(3))
	require.NoError(t, sess.Next())
	assert.Equal(t, 1, sess.Index())
	assert.Equal(t, Unanswered, sess.Current().State())

	require.NoError(t, sess.Prev())
	assert.Equal(t, Unanswered, sess.Current().State(), "navigation starts a fresh interaction")

	assert.ErrorIs(t, sess.Prev(), ErrOutOfRange)
	require.NoError(t, sess.Goto(3))
	assert.ErrorIs(t, sess.Next(), ErrOutOfRange)
	assert.Equal(t, 3, sess.Index())
}

func TestSession_SummaryAndFeedback(t *testing.T) {
	clock := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	var asked []string
	fb := FeedbackFunc(func(_ context.Context, r question.Record, _ answer.Value) string {
		asked = append(asked, r.ID)
		return "coba lagi"
	})
	sess, err := Start(testBank(t), "UJIAN", noShuffle(),
		WithFeedback(fb), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	require.NoError(t, sess.Current().Select(3))
	_, err = sess.Check()
	require.NoError(t, err)
	assert.Empty(t, sess.Feedback(context.Background()), "no feedback for a correct answer")

	require.NoError(t, sess.Next())
	assert.Empty(t, sess.Feedback(context.Background()), "no feedback before check")
	require.NoError(t, sess.Current().Toggle(0))
	v, err := sess.Check()
	require.NoError(t, err)
	assert.False(t, v.Correct)
	assert.Equal(t, "coba lagi", sess.Feedback(context.Background()))
	assert.Equal(t, []string{"q2"}, asked)

	require.NoError(t, sess.Goto(3))
	require.NoError(t, sess.Current().Type("esai"))
	_, err = sess.Check()
	require.NoError(t, err)

	clock = clock.Add(10 * time.Minute)
	sum := sess.Summary()
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 3, sum.Checked)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 1, sum.NeedsReview)
	assert.InDelta(t, 0.5, sum.Accuracy, 1e-9)
	assert.Equal(t, 10*time.Minute, sum.Duration)
}

func TestSession_Deadline(t *testing.T) {
	clock := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sess, err := Start(testBank(t), "UJIAN", noShuffle(), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	assert.Equal(t, clock.Add(30*time.Minute), sess.Deadline())
	assert.Equal(t, 30*time.Minute, sess.Remaining())
	assert.False(t, sess.Expired())

	clock = clock.Add(31 * time.Minute)
	assert.Equal(t, time.Duration(0), sess.Remaining())
	assert.True(t, sess.Expired())

	untimed, err := Start(testBank(t), "UJIAN", sheet.Settings{}, WithRand(seeded()))
	require.NoError(t, err)
	assert.True(t, untimed.Deadline().IsZero())
	assert.False(t, untimed.Expired())
}
