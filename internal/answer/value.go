package answer

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Kind is the discriminant of a Value.
type Kind int

const (
	KindNone Kind = iota
	KindSingleIndex
	KindIndexSet
	KindBoolSequence
	KindFreeText
)

func (k Kind) String() string {
	switch k {
	case KindSingleIndex:
		return "single-index"
	case KindIndexSet:
		return "index-set"
	case KindBoolSequence:
		return "bool-sequence"
	case KindFreeText:
		return "free-text"
	default:
		return "none"
	}
}

// Value is a correct or submitted answer. Exactly one variant is populated,
// selected by Kind. The zero Value has KindNone and is legal for no type.
type Value struct {
	kind  Kind
	index int
	set   []int
	bools []bool
	text  string
}

// SingleIndex is an index into the options list.
func SingleIndex(i int) Value {
	return Value{kind: KindSingleIndex, index: i}
}

// IndexSet is an unordered set of option indices. Duplicates are removed
// and the indices are kept sorted ascending.
func IndexSet(indices ...int) Value {
	set := make([]int, 0, len(indices))
	for _, i := range indices {
		if !slices.Contains(set, i) {
			set = append(set, i)
		}
	}
	slices.Sort(set)
	return Value{kind: KindIndexSet, set: set}
}

// BoolSequence holds one entry per option, positional.
func BoolSequence(bs ...bool) Value {
	out := make([]bool, len(bs))
	copy(out, bs)
	return Value{kind: KindBoolSequence, bools: out}
}

// FreeText is a typed answer.
func FreeText(s string) Value {
	return Value{kind: KindFreeText, text: s}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Index returns the single index; ok is false for other variants.
func (v Value) Index() (int, bool) {
	return v.index, v.kind == KindSingleIndex
}

// Indices returns a copy of the sorted index set, or nil for other variants.
func (v Value) Indices() []int {
	if v.kind != KindIndexSet {
		return nil
	}
	return slices.Clone(v.set)
}

// Bools returns a copy of the boolean sequence, or nil for other variants.
func (v Value) Bools() []bool {
	if v.kind != KindBoolSequence {
		return nil
	}
	return slices.Clone(v.bools)
}

// Text returns the free text; ok is false for other variants.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindFreeText
}

// Len is the number of entries for IndexSet and BoolSequence, 1 for the
// scalar variants, 0 for KindNone.
func (v Value) Len() int {
	switch v.kind {
	case KindIndexSet:
		return len(v.set)
	case KindBoolSequence:
		return len(v.bools)
	case KindNone:
		return 0
	default:
		return 1
	}
}

// Equal reports structural equality. IndexSets are compared as sets.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindSingleIndex:
		return v.index == o.index
	case KindIndexSet:
		return slices.Equal(v.set, o.set)
	case KindBoolSequence:
		return slices.Equal(v.bools, o.bools)
	case KindFreeText:
		return v.text == o.text
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindSingleIndex:
		return fmt.Sprintf("SingleIndex(%d)", v.index)
	case KindIndexSet:
		return fmt.Sprintf("IndexSet(%v)", v.set)
	case KindBoolSequence:
		return fmt.Sprintf("BoolSequence(%v)", v.bools)
	case KindFreeText:
		return fmt.Sprintf("FreeText(%q)", v.text)
	default:
		return "None"
	}
}

// MarshalJSON emits the wire shape: integer, array of integers, array of
// booleans or string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindSingleIndex:
		return json.Marshal(v.index)
	case KindIndexSet:
		if v.set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.set)
	case KindBoolSequence:
		if v.bools == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.bools)
	case KindFreeText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalFor strictly decodes a wire JSON value for the declared type.
// The shape is chosen by the type, never guessed from the payload.
func UnmarshalFor(t Type, raw json.RawMessage) (Value, error) {
	spec, ok := Lookup(t)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}

	switch spec.Shape {
	case KindSingleIndex:
		var i int
		if err := json.Unmarshal(raw, &i); err != nil {
			return Value{}, &DecodeError{Type: t, Raw: string(raw), Reason: "want integer", Err: err}
		}
		return SingleIndex(i), nil
	case KindIndexSet:
		var is []int
		if err := json.Unmarshal(raw, &is); err != nil {
			return Value{}, &DecodeError{Type: t, Raw: string(raw), Reason: "want array of integers", Err: err}
		}
		return IndexSet(is...), nil
	case KindBoolSequence:
		var bs []bool
		if err := json.Unmarshal(raw, &bs); err != nil {
			return Value{}, &DecodeError{Type: t, Raw: string(raw), Reason: "want array of booleans", Err: err}
		}
		return BoolSequence(bs...), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, &DecodeError{Type: t, Raw: string(raw), Reason: "want string", Err: err}
		}
		return FreeText(s), nil
	}
}
