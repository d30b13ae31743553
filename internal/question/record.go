package question

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/latihan/internal/answer"
)

// ID prefixes identify the input path that created a record.
const (
	PrefixManual = "q_manual_"
	PrefixAI     = "q_ai_"
	PrefixExcel  = "q_excel_"
)

// Defaults applied when an input path leaves a field blank.
const (
	DefaultLevel   = "L2"
	DefaultSubject = "Umum"
	DefaultPhase   = "Fase C"
	DefaultToken   = "TOKEN"
)

// MaxOptions is the number of option cells a question can carry.
const MaxOptions = 5

// TFLabels overrides the captions shown next to boolean statements.
type TFLabels struct {
	True  string `json:"true"`
	False string `json:"false"`
}

// Record is the canonical, validated state of one question.
type Record struct {
	ID          string      `json:"id"`
	Type        answer.Type `json:"type"`
	Level       string      `json:"level"`
	Subject     string      `json:"subject"`
	Phase       string      `json:"phase"`
	Material    string      `json:"material"`
	Text        string      `json:"text"`
	Explanation string      `json:"explanation"`

	// Options is ordered; SingleIndex/IndexSet answers index into it and
	// BoolSequence answers are positional over it.
	Options       []string     `json:"options"`
	CorrectAnswer answer.Value `json:"correctAnswer"`

	Image        string    `json:"image,omitempty"`
	OptionImages []string  `json:"optionImages,omitempty"`
	TFLabels     *TFLabels `json:"tfLabels,omitempty"`

	Order     int       `json:"order"`
	QuizToken string    `json:"quizToken"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`

	// TeachingMaterial is markdown shared by every question of a token.
	TeachingMaterial string `json:"teachingMaterial,omitempty"`

	// Issues lists decode-time defects that were repaired by defaulting.
	Issues []string `json:"issues,omitempty"`
}

// NewID returns a session-unique identifier with the given origin prefix.
func NewID(prefix string) string {
	return prefix + uuid.NewString()
}

// NormalizeToken upper-cases a quiz token, substituting DefaultToken when blank.
func NormalizeToken(token string) string {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return DefaultToken
	}
	return token
}

// TrimOptions drops trailing blank options. Leading and interior blanks are
// kept so positions stay stable.
func TrimOptions(opts []string) []string {
	end := len(opts)
	for end > 0 && strings.TrimSpace(opts[end-1]) == "" {
		end--
	}
	return slices.Clone(opts[:end])
}

// NeedsRepair reports whether the question type requires options that are
// missing.
func (r Record) NeedsRepair() bool {
	spec, ok := answer.Lookup(r.Type)
	return ok && spec.NeedsOptions && len(r.Options) == 0
}

// Labels returns the true/false captions for boolean statements.
func (r Record) Labels() TFLabels {
	if r.TFLabels != nil {
		return *r.TFLabels
	}
	spec, _ := answer.Lookup(r.Type)
	return TFLabels{True: spec.TrueDisplay, False: spec.FalseDisplay}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	c := r
	c.Options = slices.Clone(r.Options)
	c.OptionImages = slices.Clone(r.OptionImages)
	c.Issues = slices.Clone(r.Issues)
	if r.TFLabels != nil {
		l := *r.TFLabels
		c.TFLabels = &l
	}
	return c
}

// Validate checks the type/answer invariants without repairing anything.
func (r Record) Validate() error {
	if !r.Type.Known() {
		return fmt.Errorf("%w: %q", answer.ErrUnknownType, string(r.Type))
	}
	return answer.CheckRange(r.Type, r.CorrectAnswer, len(r.Options))
}

// Normalize is the generic validation step every decoder runs last: the
// token is upper-cased, boolean sequences are padded to the option count,
// and an answer that still violates the invariants is replaced by the
// type's default and noted in Issues.
func Normalize(r *Record) {
	r.QuizToken = NormalizeToken(r.QuizToken)
	r.CorrectAnswer = answer.Pad(r.CorrectAnswer, len(r.Options))
	if err := answer.CheckRange(r.Type, r.CorrectAnswer, len(r.Options)); err != nil {
		r.Flag(err.Error())
		r.CorrectAnswer = answer.Default(r.Type, len(r.Options))
	}
}

// Flag records a decode-time defect.
func (r *Record) Flag(issue string) {
	r.Issues = append(r.Issues, issue)
}

// WithType returns a copy converted to t. The answer is reset to t's default
// because no shape converts losslessly into another.
func (r Record) WithType(t answer.Type) (Record, error) {
	if !t.Known() {
		return Record{}, fmt.Errorf("%w: %q", answer.ErrUnknownType, string(t))
	}
	c := r.Clone()
	c.Type = t
	c.CorrectAnswer = answer.Default(t, len(c.Options))
	c.TFLabels = nil
	return c, nil
}

type recordJSON struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Level            string          `json:"level"`
	Subject          string          `json:"subject"`
	Phase            string          `json:"phase"`
	Material         string          `json:"material"`
	Text             string          `json:"text"`
	Explanation      string          `json:"explanation"`
	Options          []string        `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correctAnswer"`
	Image            string          `json:"image"`
	OptionImages     []string        `json:"optionImages"`
	TFLabels         *TFLabels       `json:"tfLabels"`
	Order            int             `json:"order"`
	QuizToken        string          `json:"quizToken"`
	IsDeleted        bool            `json:"isDeleted"`
	CreatedAt        time.Time       `json:"createdAt"`
	TeachingMaterial string          `json:"teachingMaterial"`
	Issues           []string        `json:"issues"`
}

// UnmarshalJSON decodes a bank-file record. The answer shape is chosen by
// the type; a malformed answer degrades to the default and is flagged.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := answer.ParseType(raw.Type)
	if err != nil {
		return fmt.Errorf("record %q: %w", raw.ID, err)
	}

	*r = Record{
		ID:               raw.ID,
		Type:             t,
		Level:            raw.Level,
		Subject:          raw.Subject,
		Phase:            raw.Phase,
		Material:         raw.Material,
		Text:             raw.Text,
		Explanation:      raw.Explanation,
		Options:          raw.Options,
		Image:            raw.Image,
		OptionImages:     raw.OptionImages,
		TFLabels:         raw.TFLabels,
		Order:            raw.Order,
		QuizToken:        raw.QuizToken,
		IsDeleted:        raw.IsDeleted,
		CreatedAt:        raw.CreatedAt,
		TeachingMaterial: raw.TeachingMaterial,
		Issues:           raw.Issues,
	}
	if r.Options == nil {
		r.Options = []string{}
	}

	if len(raw.CorrectAnswer) == 0 || string(raw.CorrectAnswer) == "null" {
		r.CorrectAnswer = answer.Default(t, len(r.Options))
	} else if v, err := answer.UnmarshalFor(t, raw.CorrectAnswer); err != nil {
		r.Flag(err.Error())
		r.CorrectAnswer = answer.Default(t, len(r.Options))
	} else {
		r.CorrectAnswer = v
	}

	Normalize(r)
	return nil
}
