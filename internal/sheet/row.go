// Package sheet maps question records to and from the fixed 18-column
// spreadsheet layout used for bulk import and export.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

// Column positions.
const (
	ColOrder = iota
	ColType
	ColLevel
	ColMaterial
	ColText
	ColImage
	ColOptionA
	ColOptionB
	ColOptionC
	ColOptionD
	ColOptionE
	ColKey
	ColExplanation
	ColToken
	ColDuration
	ColShuffleQuestions
	ColShuffleOptions
	ColSubject

	NumColumns
)

// Header is row 0 of every sheet.
var Header = []string{
	"No",
	"Tipe Soal",
	"Level",
	"Materi",
	"Teks Soal",
	"URL Gambar Stimulus",
	"Opsi A",
	"Opsi B",
	"Opsi C",
	"Opsi D",
	"Opsi E",
	"Kunci Jawaban",
	"Pembahasan",
	"Token",
	"Durasi (Menit)",
	"Acak Soal (Ya/Tidak)",
	"Acak Opsi (Ya/Tidak)",
	"Mata Pelajaran",
}

const (
	yes = "Ya"
	no  = "Tidak"

	keySeparator = ", "
)

// Settings are the exercise-level columns repeated on every exported row.
type Settings struct {
	Duration         int
	ShuffleQuestions bool
	ShuffleOptions   bool
}

// DefaultSettings matches the template download.
func DefaultSettings() Settings {
	return Settings{Duration: 60, ShuffleQuestions: true, ShuffleOptions: true}
}

// RowError is a row that cannot be decoded at all.
type RowError struct {
	Row int // 1-based sheet row, header included
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// DecodeRow decodes one data row. index is the row's 0-based position
// after the header. A malformed answer key never fails the row: it
// degrades to the type's default and the record is flagged. The only
// error is an unrecognized type label. Callers exclude records with empty
// Text.
func DecodeRow(row []string, index int, now time.Time) (question.Record, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	t := answer.TypeSingleChoice
	if label := cell(ColType); label != "" {
		var err error
		if t, err = answer.ParseType(label); err != nil {
			return question.Record{}, &RowError{Row: index + 2, Err: err}
		}
	}

	opts := make([]string, 0, question.MaxOptions)
	for i := ColOptionA; i <= ColOptionE; i++ {
		if i < len(row) {
			opts = append(opts, row[i])
		} else {
			opts = append(opts, "")
		}
	}
	opts = question.TrimOptions(opts)

	r := question.Record{
		ID:          question.NewID(question.PrefixExcel),
		Type:        t,
		Level:       orDefault(cell(ColLevel), question.DefaultLevel),
		Subject:     orDefault(cell(ColSubject), question.DefaultSubject),
		Phase:       question.DefaultPhase,
		Material:    cell(ColMaterial),
		Text:        cell(ColText),
		Explanation: cell(ColExplanation),
		Options:     opts,
		Image:       cell(ColImage),
		Order:       parseOrder(cell(ColOrder), index),
		QuizToken:   cell(ColToken),
		CreatedAt:   now,
	}

	v, err := DecodeKey(t, cell(ColKey), len(opts))
	if err != nil {
		r.Flag(err.Error())
	}
	r.CorrectAnswer = v
	question.Normalize(&r)
	return r, nil
}

// DecodeKey parses an answer-key cell for t. On a malformed cell it
// returns the type default together with a *answer.DecodeError.
func DecodeKey(t answer.Type, key string, optionCount int) (answer.Value, error) {
	key = strings.TrimSpace(key)
	spec, ok := answer.Lookup(t)
	if !ok {
		return answer.Default(t, optionCount), fmt.Errorf("%w: %q", answer.ErrUnknownType, string(t))
	}

	switch spec.Shape {
	case answer.KindSingleIndex:
		i, ok := letterIndex(key)
		if !ok {
			return answer.SingleIndex(0), &answer.DecodeError{Type: t, Raw: key, Reason: "want a letter A-E"}
		}
		return answer.SingleIndex(i), nil

	case answer.KindIndexSet:
		var idx []int
		for _, tok := range splitKey(key) {
			i, ok := letterIndex(tok)
			if !ok {
				continue
			}
			if optionCount > 0 && i >= optionCount {
				continue
			}
			idx = append(idx, i)
		}
		return answer.IndexSet(idx...), nil

	case answer.KindBoolSequence:
		toks := splitKey(key)
		bs := make([]bool, len(toks))
		for i, tok := range toks {
			bs[i] = inVocabulary(spec.TrueVocabulary, tok)
		}
		return answer.BoolSequence(bs...), nil

	default:
		return answer.FreeText(key), nil
	}
}

// EncodeRow is the inverse of DecodeRow. Options are padded to five cells.
func EncodeRow(r question.Record, s Settings) []string {
	row := make([]string, NumColumns)
	if r.Order > 0 {
		row[ColOrder] = strconv.Itoa(r.Order)
	}
	row[ColType] = string(r.Type)
	row[ColLevel] = r.Level
	row[ColMaterial] = r.Material
	row[ColText] = r.Text
	row[ColImage] = r.Image
	for i := 0; i < question.MaxOptions && i < len(r.Options); i++ {
		row[ColOptionA+i] = r.Options[i]
	}
	row[ColKey] = EncodeKey(r.Type, r.CorrectAnswer)
	row[ColExplanation] = r.Explanation
	row[ColToken] = r.QuizToken
	row[ColDuration] = strconv.Itoa(s.Duration)
	row[ColShuffleQuestions] = yesNo(s.ShuffleQuestions)
	row[ColShuffleOptions] = yesNo(s.ShuffleOptions)
	row[ColSubject] = orDefault(r.Subject, question.DefaultSubject)
	return row
}

// EncodeKey renders an answer as a key cell. BoolSequences are written in
// full; no entry is dropped.
func EncodeKey(t answer.Type, v answer.Value) string {
	switch v.Kind() {
	case answer.KindSingleIndex:
		i, _ := v.Index()
		return indexLetter(i)
	case answer.KindIndexSet:
		idx := v.Indices()
		letters := make([]string, len(idx))
		for n, i := range idx {
			letters[n] = indexLetter(i)
		}
		return strings.Join(letters, keySeparator)
	case answer.KindBoolSequence:
		spec, _ := answer.Lookup(t)
		bs := v.Bools()
		labels := make([]string, len(bs))
		for n, b := range bs {
			if b {
				labels[n] = spec.TrueLabel
			} else {
				labels[n] = spec.FalseLabel
			}
		}
		return strings.Join(labels, keySeparator)
	case answer.KindFreeText:
		s, _ := v.Text()
		return s
	default:
		return ""
	}
}

// DecodeSettings reads the exercise-level columns of a data row.
func DecodeSettings(row []string) (Settings, bool) {
	if len(row) <= ColShuffleOptions {
		return Settings{}, false
	}
	s := DefaultSettings()
	if d, err := strconv.Atoi(strings.TrimSpace(row[ColDuration])); err == nil && d > 0 {
		s.Duration = d
	}
	s.ShuffleQuestions = parseYesNo(row[ColShuffleQuestions], s.ShuffleQuestions)
	s.ShuffleOptions = parseYesNo(row[ColShuffleOptions], s.ShuffleOptions)
	return s, true
}

func letterIndex(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	c := s[0]
	if c < 'A' || c > 'Z' {
		return 0, false
	}
	return int(c - 'A'), true
}

func indexLetter(i int) string {
	if i < 0 || i > 'Z'-'A' {
		return ""
	}
	return string(rune('A' + i))
}

func splitKey(key string) []string {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	parts := strings.Split(key, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func inVocabulary(vocab []string, tok string) bool {
	tok = strings.ToUpper(strings.TrimSpace(tok))
	for _, v := range vocab {
		if tok == v {
			return true
		}
	}
	return false
}

func parseOrder(s string, index int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 {
		return int(f)
	}
	return index + 1
}

func yesNo(b bool) string {
	if b {
		return yes
	}
	return no
}

func parseYesNo(s string, def bool) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YA", "Y", "YES", "TRUE":
		return true
	case "TIDAK", "T", "NO", "FALSE":
		return false
	default:
		return def
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
