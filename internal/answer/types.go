package answer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a question type label is not one of the
// six known variants.
var ErrUnknownType = errors.New("unknown question type")

// Type identifies a question variant. The string value is the label used on
// the wire (spreadsheet column, AI response, JSON bank file).
type Type string

const (
	TypeSingleChoice Type = "Pilihan Ganda"
	TypeMultiSelect  Type = "Pilihan Jamak (MCMA)"
	TypeTrueFalse    Type = "(Benar/Salah)"
	TypeMatch        Type = "(Sesuai/Tidak Sesuai)"
	TypeFillIn       Type = "ISIAN"
	TypeEssay        Type = "URAIAN"
)

// Spec describes the answer rules attached to a question type.
type Spec struct {
	Type Type

	// Shape is the only Value kind legal for this type.
	Shape Kind

	// NeedsOptions is true when the question cannot be answered without
	// a non-empty options list.
	NeedsOptions bool

	// Graded is false for types that always defer to a human reviewer.
	Graded bool

	// TrueLabel and FalseLabel are the spreadsheet answer-key tokens for
	// boolean sequences.
	TrueLabel  string
	FalseLabel string

	// TrueDisplay and FalseDisplay are the default column captions shown
	// next to each statement.
	TrueDisplay  string
	FalseDisplay string

	// TrueVocabulary lists the upper-cased spreadsheet tokens that decode
	// to true. Anything else decodes to false.
	TrueVocabulary []string
}

var registry = map[Type]Spec{
	TypeSingleChoice: {
		Type:         TypeSingleChoice,
		Shape:        KindSingleIndex,
		NeedsOptions: true,
		Graded:       true,
	},
	TypeMultiSelect: {
		Type:         TypeMultiSelect,
		Shape:        KindIndexSet,
		NeedsOptions: true,
		Graded:       true,
	},
	TypeTrueFalse: {
		Type:           TypeTrueFalse,
		Shape:          KindBoolSequence,
		NeedsOptions:   true,
		Graded:         true,
		TrueLabel:      "B",
		FalseLabel:     "S",
		TrueDisplay:    "Benar",
		FalseDisplay:   "Salah",
		TrueVocabulary: []string{"B", "BENAR", "TRUE"},
	},
	TypeMatch: {
		Type:           TypeMatch,
		Shape:          KindBoolSequence,
		NeedsOptions:   true,
		Graded:         true,
		TrueLabel:      "S",
		FalseLabel:     "T",
		TrueDisplay:    "Sesuai",
		FalseDisplay:   "Tidak Sesuai",
		TrueVocabulary: []string{"S", "SESUAI", "TRUE"},
	},
	TypeFillIn: {
		Type:   TypeFillIn,
		Shape:  KindFreeText,
		Graded: true,
	},
	TypeEssay: {
		Type:  TypeEssay,
		Shape: KindFreeText,
	},
}

// ordered is the canonical listing order (matches the authoring forms).
var ordered = []Type{
	TypeSingleChoice,
	TypeMultiSelect,
	TypeTrueFalse,
	TypeMatch,
	TypeFillIn,
	TypeEssay,
}

// Types returns all known question types in canonical order.
func Types() []Type {
	out := make([]Type, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup returns the Spec for t.
func Lookup(t Type) (Spec, bool) {
	s, ok := registry[t]
	return s, ok
}

// Known reports whether t is one of the six variants.
func (t Type) Known() bool {
	_, ok := registry[t]
	return ok
}

// IsBoolSequence reports whether t is one of the two boolean-sequence variants.
func (t Type) IsBoolSequence() bool {
	return t == TypeTrueFalse || t == TypeMatch
}

func (t Type) String() string { return string(t) }

// ParseType resolves a wire label. Matching ignores case and surrounding
// whitespace.
func ParseType(label string) (Type, error) {
	label = strings.TrimSpace(label)
	for _, t := range ordered {
		if strings.EqualFold(label, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, label)
}
