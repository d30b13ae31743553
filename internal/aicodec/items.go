package aicodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

// ErrNotArray is returned when a generation response is not a JSON array.
var ErrNotArray = errors.New("generation response is not a JSON array")

// Defaults fill in the fields the service does not own.
type Defaults struct {
	Subject   string
	Phase     string
	Material  string
	QuizToken string

	Now    func() time.Time
	Logger *zap.Logger
}

// Batch is a decoded generation response.
type Batch struct {
	Records []question.Record
	Skipped int // items that were not objects or had no question text
	Flagged int // records carrying decode issues
}

type item struct {
	Type          string          `json:"type"`
	Level         string          `json:"level"`
	Text          string          `json:"text"`
	Explanation   string          `json:"explanation"`
	Material      string          `json:"material"`
	QuizToken     string          `json:"quizToken"`
	Order         json.RawMessage `json:"order"`
	Options       []any           `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
}

// DecodeItems decodes a batch of generated questions. A bad item never
// aborts the batch; only a response that is not an array is an error.
func DecodeItems(raw []byte, d Defaults) (Batch, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &elems); err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	var b Batch
	ts := now()
	for i, el := range elems {
		var it item
		if err := json.Unmarshal(el, &it); err != nil {
			b.Skipped++
			log.Warn("skipping undecodable item", zap.Int("index", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(it.Text) == "" {
			b.Skipped++
			log.Warn("skipping item without text", zap.Int("index", i))
			continue
		}

		r := decodeItem(it, i, d, ts)
		if len(r.Issues) > 0 {
			b.Flagged++
			log.Warn("generated item degraded",
				zap.Int("index", i),
				zap.String("type", string(r.Type)),
				zap.Strings("issues", r.Issues))
		}
		b.Records = append(b.Records, r)
	}
	return b, nil
}

func decodeItem(it item, index int, d Defaults, now time.Time) question.Record {
	r := question.Record{
		ID:          question.NewID(question.PrefixAI),
		Level:       orDefault(it.Level, question.DefaultLevel),
		Subject:     orDefault(d.Subject, question.DefaultSubject),
		Phase:       orDefault(d.Phase, question.DefaultPhase),
		Material:    orDefault(it.Material, d.Material),
		Text:        strings.TrimSpace(it.Text),
		Explanation: it.Explanation,
		Options:     question.TrimOptions(stringify(it.Options)),
		Order:       decodeOrder(it.Order, index),
		QuizToken:   orDefault(it.QuizToken, d.QuizToken),
		CreatedAt:   now,
	}

	t, err := answer.ParseType(it.Type)
	if err != nil {
		t = answer.TypeEssay
		r.Flag(fmt.Sprintf("unknown type label %q, kept as %s", it.Type, t))
	}
	r.Type = t

	v, derr := SafeDecodeAnswer(t, AnswerText(it.CorrectAnswer), len(r.Options))
	if derr != nil {
		r.Flag(derr.Error())
	}
	r.CorrectAnswer = v
	question.Normalize(&r)
	return r
}

// AnswerText returns the textual form of a correctAnswer field: the
// unquoted string when it arrived as a JSON string, otherwise the raw
// JSON (a number, array or boolean).
func AnswerText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func stringify(opts []any) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		switch v := o.(type) {
		case nil:
			out = append(out, "")
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func decodeOrder(raw json.RawMessage, index int) int {
	if n, err := strconv.Atoi(strings.Trim(AnswerText(raw), " ")); err == nil && n > 0 {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && f >= 1 {
		return int(f)
	}
	return index + 1
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// RepairOutput is the response to an option-repair request.
type RepairOutput struct {
	Options     []string `json:"options"`
	Explanation string   `json:"explanation"`
}

// DecodeRepair decodes an option-repair response.
func DecodeRepair(raw []byte) (RepairOutput, error) {
	var out RepairOutput
	if err := json.Unmarshal(bytes.TrimSpace(raw), &out); err != nil {
		return RepairOutput{}, fmt.Errorf("decode repair response: %w", err)
	}
	return out, nil
}
