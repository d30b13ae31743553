package generate

import (
	"errors"
	"fmt"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

// ErrEmptyRequest is returned when a request asks for zero questions.
var ErrEmptyRequest = errors.New("generation request asks for no questions")

// Levels are the cognitive levels a request can distribute questions over.
var Levels = []string{"L1", "L2", "L3"}

// Image is an inline reference image sent along with the prompt.
type Image struct {
	MIMEType string `validate:"required,oneof=image/png image/jpeg image/webp image/heic image/heif"`
	Data     []byte `validate:"required"`
}

// Request describes one batch of questions to generate.
type Request struct {
	Subject  string `validate:"required,max=120"`
	Phase    string `validate:"required,max=60"`
	Material string `validate:"required,max=200"`

	// TypeCounts is how many questions of each type to produce.
	TypeCounts map[answer.Type]int `validate:"required,dive,keys,qtype,endkeys,min=0,max=50"`

	// LevelCounts distributes the batch over L1/L2/L3.
	LevelCounts map[string]int `validate:"dive,keys,oneof=L1 L2 L3,endkeys,min=0,max=50"`

	QuizToken           string `validate:"max=40"`
	ReferenceText       string
	ReferenceImage      *Image
	SpecialInstructions string
}

// Total is the number of questions requested.
func (r Request) Total() int {
	n := 0
	for _, c := range r.TypeCounts {
		n += max(c, 0)
	}
	return n
}

// Validate checks the request fields and that at least one question is
// requested.
func (r Request) Validate() error {
	if err := question.Validator().Struct(r); err != nil {
		return fmt.Errorf("invalid generation request: %w", err)
	}
	if r.Total() == 0 {
		return ErrEmptyRequest
	}
	return nil
}
