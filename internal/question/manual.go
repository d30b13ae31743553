package question

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/latihan/internal/answer"
)

// Draft is the input of the manual-entry path.
type Draft struct {
	Type          answer.Type `validate:"required,qtype"`
	Level         string      `validate:"omitempty,oneof=L1 L2 L3"`
	Subject       string      `validate:"max=120"`
	Phase         string      `validate:"max=60"`
	Material      string      `validate:"max=200"`
	Text          string      `validate:"required"`
	Explanation   string
	Options       []string `validate:"max=5"`
	CorrectAnswer answer.Value
	Image         string
	QuizToken     string `validate:"max=40"`
	TFLabels      *TFLabels
}

// NewDraft returns the blank manual-entry form: a single-choice question at
// level L2 with five empty options.
func NewDraft() Draft {
	return Draft{
		Type:          answer.TypeSingleChoice,
		Level:         DefaultLevel,
		Subject:       DefaultSubject,
		Phase:         DefaultPhase,
		Options:       make([]string, MaxOptions),
		CorrectAnswer: answer.SingleIndex(0),
		QuizToken:     DefaultToken,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("qtype", func(fl validator.FieldLevel) bool {
		return answer.Type(fl.Field().String()).Known()
	})
	return v
}

// Validator returns the shared struct validator with the qtype tag registered.
func Validator() *validator.Validate { return validate }

// NewManual builds a record from a manual-entry draft. Unlike the import
// decoders it is strict: a wrong answer shape or an out-of-range answer is
// returned as an error instead of being defaulted.
func NewManual(d Draft, now time.Time) (Record, error) {
	d.Text = strings.TrimSpace(d.Text)
	if err := validate.Struct(d); err != nil {
		return Record{}, fmt.Errorf("invalid question: %w", err)
	}

	opts := TrimOptions(d.Options)
	if spec, _ := answer.Lookup(d.Type); !spec.NeedsOptions {
		opts = []string{}
	}
	ans := answer.Pad(d.CorrectAnswer, len(opts))
	if err := answer.CheckRange(d.Type, ans, len(opts)); err != nil {
		return Record{}, fmt.Errorf("invalid question: %w", err)
	}

	r := Record{
		ID:            NewID(PrefixManual),
		Type:          d.Type,
		Level:         orDefault(d.Level, DefaultLevel),
		Subject:       orDefault(d.Subject, DefaultSubject),
		Phase:         orDefault(d.Phase, DefaultPhase),
		Material:      d.Material,
		Text:          d.Text,
		Explanation:   d.Explanation,
		Options:       opts,
		CorrectAnswer: ans,
		Image:         d.Image,
		QuizToken:     NormalizeToken(d.QuizToken),
		TFLabels:      d.TFLabels,
		CreatedAt:     now,
	}
	return r, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
