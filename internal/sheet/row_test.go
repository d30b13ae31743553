package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

var testNow = time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)

func row(cells map[int]string) []string {
	r := make([]string, NumColumns)
	for i, c := range cells {
		r[i] = c
	}
	return r
}

func fourOptions(typ, key string) []string {
	return row(map[int]string{
		ColType: typ, ColText: "Soal", ColKey: key, ColToken: "bio1",
		ColOptionA: "a", ColOptionB: "b", ColOptionC: "c", ColOptionD: "d",
	})
}

func TestHeader_Has18Columns(t *testing.T) {
	require.Len(t, Header, 18)
	assert.Equal(t, NumColumns, len(Header))
	assert.Equal(t, "Kunci Jawaban", Header[ColKey])
	assert.Equal(t, "Mata Pelajaran", Header[ColSubject])
}

func TestDecodeRow_SingleChoiceLetter(t *testing.T) {
	r, err := DecodeRow(fourOptions("Pilihan Ganda", "B"), 0, testNow)
	require.NoError(t, err)
	assert.True(t, r.CorrectAnswer.Equal(answer.SingleIndex(1)))
	assert.Empty(t, r.Issues)
}

func TestDecodeRow_Defaults(t *testing.T) {
	r, err := DecodeRow(row(map[int]string{ColText: "Soal", ColOptionA: "x", ColKey: "a"}), 4, testNow)
	require.NoError(t, err)
	assert.Equal(t, answer.TypeSingleChoice, r.Type)
	assert.Equal(t, 5, r.Order)
	assert.Equal(t, "L2", r.Level)
	assert.Equal(t, "Umum", r.Subject)
	assert.Equal(t, "Fase C", r.Phase)
	assert.Equal(t, "TOKEN", r.QuizToken)
	assert.Equal(t, testNow, r.CreatedAt)
	assert.Contains(t, r.ID, question.PrefixExcel)
}

func TestDecodeRow_TokenUpperCased(t *testing.T) {
	r, err := DecodeRow(fourOptions("Pilihan Ganda", "A"), 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, "BIO1", r.QuizToken)
}

func TestDecodeRow_OptionsKeepInteriorBlanks(t *testing.T) {
	r, err := DecodeRow(row(map[int]string{
		ColText: "Soal", ColOptionA: "", ColOptionB: "b", ColOptionC: "", ColOptionD: "d", ColKey: "B",
	}), 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "b", "", "d"}, r.Options)
}

func TestDecodeRow_ShortRow(t *testing.T) {
	r, err := DecodeRow([]string{"3", "ISIAN", "L1", "Air", "Rumus kimia air?", "", "", "", "", "", "", "H2O"}, 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Order)
	assert.Empty(t, r.Options)
	assert.True(t, r.CorrectAnswer.Equal(answer.FreeText("H2O")))
}

func TestDecodeRow_UnknownType(t *testing.T) {
	_, err := DecodeRow(fourOptions("Essay", "A"), 2, testNow)
	var re *RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 4, re.Row)
	assert.ErrorIs(t, err, answer.ErrUnknownType)
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		name    string
		typ     answer.Type
		key     string
		options int
		want    answer.Value
		wantErr bool
	}{
		{"single lower case", answer.TypeSingleChoice, "c", 4, answer.SingleIndex(2), false},
		{"single word uses first rune", answer.TypeSingleChoice, "Dua", 4, answer.SingleIndex(3), false},
		{"single garbage", answer.TypeSingleChoice, "?", 4, answer.SingleIndex(0), true},
		{"single empty", answer.TypeSingleChoice, "", 4, answer.SingleIndex(0), true},
		{"multi", answer.TypeMultiSelect, "A, C", 5, answer.IndexSet(0, 2), false},
		{"multi drops junk", answer.TypeMultiSelect, "C,1,,a,Z", 4, answer.IndexSet(0, 2), false},
		{"binary", answer.TypeTrueFalse, "B, S, benar, true", 4, answer.BoolSequence(true, false, true, true), false},
		{"match", answer.TypeMatch, "S, T, sesuai, x", 4, answer.BoolSequence(true, false, true, false), false},
		{"bool no padding here", answer.TypeTrueFalse, "B", 4, answer.BoolSequence(true), false},
		{"bool empty", answer.TypeMatch, "", 4, answer.BoolSequence(), false},
		{"essay", answer.TypeEssay, "Reaksi yang butuh cahaya", 0, answer.FreeText("Reaksi yang butuh cahaya"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKey(tt.typ, tt.key, tt.options)
			if tt.wantErr {
				var de *answer.DecodeError
				assert.ErrorAs(t, err, &de)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestDecodeRow_BoolPaddedByNormalize(t *testing.T) {
	r, err := DecodeRow(fourOptions("(Benar/Salah)", "B, B"), 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, r.CorrectAnswer.Bools())
	assert.Empty(t, r.Issues)
}

func TestDecodeRow_BoolLongerThanOptionsDefaults(t *testing.T) {
	r, err := DecodeRow(fourOptions("(Sesuai/Tidak Sesuai)", "S, S, S, S, S"), 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false}, r.CorrectAnswer.Bools())
	assert.NotEmpty(t, r.Issues)
}

func TestDecodeRow_LetterBeyondOptionsDefaults(t *testing.T) {
	r, err := DecodeRow(fourOptions("Pilihan Ganda", "E"), 0, testNow)
	require.NoError(t, err)
	assert.True(t, r.CorrectAnswer.Equal(answer.SingleIndex(0)))
	assert.NotEmpty(t, r.Issues)
}

func TestDecodeRow_DefaultingIsIdempotent(t *testing.T) {
	a, err := DecodeRow(fourOptions("Pilihan Jamak (MCMA)", "???"), 0, testNow)
	require.NoError(t, err)
	b, err := DecodeRow(fourOptions("Pilihan Jamak (MCMA)", "???"), 0, testNow)
	require.NoError(t, err)
	assert.True(t, a.CorrectAnswer.Equal(b.CorrectAnswer))
}

func TestEncodeKey(t *testing.T) {
	assert.Equal(t, "A, C", EncodeKey(answer.TypeMultiSelect, answer.IndexSet(2, 0)))
	assert.Equal(t, "D", EncodeKey(answer.TypeSingleChoice, answer.SingleIndex(3)))
	assert.Equal(t, "B, S, B", EncodeKey(answer.TypeTrueFalse, answer.BoolSequence(true, false, true)))
	assert.Equal(t, "S, T", EncodeKey(answer.TypeMatch, answer.BoolSequence(true, false)))
	assert.Equal(t, "", EncodeKey(answer.TypeMultiSelect, answer.IndexSet()))
}

func TestEncodeRow(t *testing.T) {
	r := question.Record{
		Type: answer.TypeMultiSelect, Level: "L3", Material: "Gaya", Text: "Pilih semua",
		Options: []string{"a", "b", "c"}, CorrectAnswer: answer.IndexSet(0, 2),
		QuizToken: "FIS", Order: 7,
	}
	got := EncodeRow(r, Settings{Duration: 45, ShuffleQuestions: true})
	require.Len(t, got, NumColumns)
	assert.Equal(t, "7", got[ColOrder])
	assert.Equal(t, "Pilihan Jamak (MCMA)", got[ColType])
	assert.Equal(t, []string{"a", "b", "c", "", ""}, got[ColOptionA:ColOptionE+1])
	assert.Equal(t, "A, C", got[ColKey])
	assert.Equal(t, "45", got[ColDuration])
	assert.Equal(t, "Ya", got[ColShuffleQuestions])
	assert.Equal(t, "Tidak", got[ColShuffleOptions])
	assert.Equal(t, "Umum", got[ColSubject])
}

func TestRoundTrip(t *testing.T) {
	opts := []string{"satu", "dua", "tiga", "empat", "lima"}
	recs := []question.Record{
		{Type: answer.TypeSingleChoice, Text: "q", Options: opts, CorrectAnswer: answer.SingleIndex(4)},
		{Type: answer.TypeMultiSelect, Text: "q", Options: opts[:3], CorrectAnswer: answer.IndexSet(2, 0)},
		{Type: answer.TypeMultiSelect, Text: "q", Options: opts[:3], CorrectAnswer: answer.IndexSet()},
		{Type: answer.TypeTrueFalse, Text: "q", Options: opts[:4], CorrectAnswer: answer.BoolSequence(false, true, false, false)},
		{Type: answer.TypeMatch, Text: "q", Options: opts[:2], CorrectAnswer: answer.BoolSequence(true, false)},
		{Type: answer.TypeFillIn, Text: "q", Options: []string{}, CorrectAnswer: answer.FreeText("fotosintesis")},
		{Type: answer.TypeEssay, Text: "q", Options: []string{}, CorrectAnswer: answer.FreeText("bebas")},
	}
	for _, r := range recs {
		t.Run(string(r.Type), func(t *testing.T) {
			got, err := DecodeRow(EncodeRow(r, DefaultSettings()), 0, testNow)
			require.NoError(t, err)
			assert.True(t, r.CorrectAnswer.Equal(got.CorrectAnswer), "got %s want %s", got.CorrectAnswer, r.CorrectAnswer)
			assert.Equal(t, r.Options, got.Options)
			assert.Empty(t, got.Issues)
		})
	}
}

func TestDecodeSettings(t *testing.T) {
	s, ok := DecodeSettings(row(map[int]string{ColDuration: "90", ColShuffleQuestions: "Tidak", ColShuffleOptions: "ya"}))
	require.True(t, ok)
	assert.Equal(t, Settings{Duration: 90, ShuffleQuestions: false, ShuffleOptions: true}, s)

	_, ok = DecodeSettings([]string{"1", "URAIAN"})
	assert.False(t, ok)
}
