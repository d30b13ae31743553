package bank

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

func q(id, token string, order int) question.Record {
	return question.Record{
		ID:            id,
		Type:          answer.TypeSingleChoice,
		Text:          "soal " + id,
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: answer.SingleIndex(1),
		QuizToken:     token,
		Order:         order,
	}
}

func TestAppend_VersionsAndSnapshotsAreImmutable(t *testing.T) {
	s := NewSession()
	v0 := s.Snapshot()
	assert.Equal(t, 0, v0.Version())

	v1, err := s.Append(q("1", "A", 1), q("2", "A", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version())
	assert.Equal(t, 2, v1.Len())
	assert.Equal(t, 0, v0.Len())

	got := v1.All()
	got[0].Text = "mutated"
	r, ok := v1.Get("1")
	require.True(t, ok)
	assert.Equal(t, "soal 1", r.Text)
}

func TestAppend_DuplicateRejectsWholeBatch(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1))
	require.NoError(t, err)

	snap, err := s.Append(q("2", "A", 2), q("1", "A", 3))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, snap.Version())
	assert.Equal(t, 1, s.Snapshot().Len())

	_, err = s.Append(q("3", "A", 1), q("3", "A", 2))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestAppend_AssignsMissingID(t *testing.T) {
	s := NewSession()
	snap, err := s.Append(q("", "A", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, snap.All()[0].ID)
}

func TestReplace(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1))
	require.NoError(t, err)

	edited := q("1", "A", 1)
	edited.Text = "diperbaiki"
	snap, err := s.Replace(edited)
	require.NoError(t, err)
	r, _ := snap.Get("1")
	assert.Equal(t, "diperbaiki", r.Text)

	_, err = s.Replace(q("404", "A", 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppend_CanonicalizesToken(t *testing.T) {
	s := NewSession()
	tf := q("1", "bio1", 1)
	tf.Type = answer.TypeTrueFalse
	tf.CorrectAnswer = answer.BoolSequence(true)
	snap, err := s.Append(tf)
	require.NoError(t, err)

	got := snap.ByToken("BIO1")
	require.Len(t, got, 1)
	assert.Equal(t, "BIO1", got[0].QuizToken)
	assert.Equal(t, []bool{true, false, false}, got[0].CorrectAnswer.Bools())
}

func TestAppend_RejectsInvalidRecord(t *testing.T) {
	s := NewSession()
	bad := q("1", "A", 1)
	bad.CorrectAnswer = answer.FreeText("B")
	_, err := s.Append(q("0", "A", 1), bad)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	var de *answer.DecodeError
	assert.ErrorAs(t, err, &de)
	assert.Zero(t, s.Snapshot().Len())

	unknown := q("2", "A", 1)
	unknown.Type = "Bukan Tipe"
	_, err = s.Append(unknown)
	assert.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}

func TestReplace_RejectsOutOfRangeAnswer(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1))
	require.NoError(t, err)

	edited := q("1", "a", 1)
	edited.Options = []string{"x", "y"}
	edited.CorrectAnswer = answer.SingleIndex(9)
	_, err = s.Replace(edited)
	var de *answer.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, answer.TypeSingleChoice, de.Type)

	r, _ := s.Snapshot().Get("1")
	assert.Equal(t, []string{"a", "b", "c"}, r.Options)
	assert.Equal(t, 1, s.Snapshot().Version())
}

func TestSoftDeleteAndRestore(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1), q("2", "A", 2))
	require.NoError(t, err)

	snap, err := s.SoftDelete("1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.Len(t, snap.Active(), 1)
	assert.Len(t, snap.Deleted(), 1)

	snap, err = s.Restore("1")
	require.NoError(t, err)
	assert.Len(t, snap.Active(), 2)

	_, err = s.SoftDelete("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuickUpdate(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1))
	require.NoError(t, err)

	snap, err := s.QuickUpdate("1", 9, "ujian2")
	require.NoError(t, err)
	r, _ := snap.Get("1")
	assert.Equal(t, 9, r.Order)
	assert.Equal(t, "UJIAN2", r.QuizToken)
}

func TestChangeType(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1))
	require.NoError(t, err)

	snap, err := s.ChangeType("1", answer.TypeMatch)
	require.NoError(t, err)
	r, _ := snap.Get("1")
	assert.Equal(t, answer.TypeMatch, r.Type)
	assert.Equal(t, []bool{false, false, false}, r.CorrectAnswer.Bools())

	_, err = s.ChangeType("1", "Esai")
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}

func TestByToken_SortedAndActiveOnly(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 3), q("2", "B", 1), q("3", "A", 1), q("4", "A", 2))
	require.NoError(t, err)
	_, err = s.SoftDelete("4")
	require.NoError(t, err)

	got := s.Snapshot().ByToken("a")
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, []string{"A", "B"}, s.Snapshot().Tokens())
}

func TestAttachMaterial(t *testing.T) {
	s := NewSession()
	_, err := s.Append(q("1", "A", 1), q("2", "A", 2), q("3", "B", 1))
	require.NoError(t, err)

	n, err := s.AttachMaterial("a", "# Materi")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "# Materi", s.Snapshot().TeachingMaterial("A"))
	assert.Empty(t, s.Snapshot().TeachingMaterial("B"))

	_, err = s.AttachMaterial("zzz", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNeedingRepair(t *testing.T) {
	s := NewSession()
	broken := q("2", "A", 2)
	broken.Options = []string{}
	_, err := s.Append(q("1", "A", 1), broken)
	require.NoError(t, err)

	got := s.Snapshot().NeedingRepair()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestUndo(t *testing.T) {
	s := NewSession()
	_, err := s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = s.Append(q("1", "A", 1))
	require.NoError(t, err)
	_, err = s.SoftDelete("1")
	require.NoError(t, err)

	snap, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Version())
	assert.Len(t, snap.Active(), 1)
}

func TestUndoDepth(t *testing.T) {
	s := NewSession(WithUndoDepth(1))
	_, _ = s.Append(q("1", "A", 1))
	_, _ = s.Append(q("2", "A", 1))
	_, err := s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestConcurrentAppends(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Append(q("", "A", 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Snapshot().Len())
	assert.Equal(t, 20, s.Snapshot().Version())
}

func TestJSONFile_RoundTrip(t *testing.T) {
	s := NewSession()
	tf := q("2", "A", 2)
	tf.Type = answer.TypeTrueFalse
	tf.CorrectAnswer = answer.BoolSequence(true, false, true)
	_, err := s.Append(q("1", "A", 1), tf)
	require.NoError(t, err)
	_, err = s.SoftDelete("1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bank.json")
	require.NoError(t, s.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	snap := loaded.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Len(t, snap.Deleted(), 1)
	r, _ := snap.Get("2")
	assert.Equal(t, []bool{true, false, true}, r.CorrectAnswer.Bools())
}

func TestLoadFile_Missing(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Zero(t, s.Snapshot().Len())
}

func TestReadJSON_Errors(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString(`{"not":"array"}`))
	assert.Error(t, err)

	_, err = ReadJSON(bytes.NewBufferString(`[{"id":"x","type":"Esai"}]`))
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}
