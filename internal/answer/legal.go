package answer

import "fmt"

// DecodeError describes an answer representation that is malformed, out of
// range or of the wrong shape for its type. Codecs recover from it by
// substituting Default.
type DecodeError struct {
	Type   Type
	Raw    string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s answer %q: %s", e.Type, e.Raw, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsLegal reports whether v's variant is the shape mandated by t.
// Unknown types accept nothing.
func IsLegal(t Type, v Value) bool {
	spec, ok := Lookup(t)
	if !ok {
		return false
	}
	return v.kind == spec.Shape
}

// CheckRange enforces the option-relative invariants: indices must lie in
// [0, optionCount) and a boolean sequence must have exactly optionCount
// entries. When optionCount is zero for a type that needs options the
// check is deferred (the question is awaiting repair).
func CheckRange(t Type, v Value, optionCount int) error {
	if !IsLegal(t, v) {
		return &DecodeError{Type: t, Raw: v.String(), Reason: fmt.Sprintf("shape %s is not legal", v.kind)}
	}
	spec, _ := Lookup(t)
	if spec.NeedsOptions && optionCount == 0 {
		return nil
	}

	switch v.kind {
	case KindSingleIndex:
		if v.index < 0 || v.index >= optionCount {
			return &DecodeError{Type: t, Raw: v.String(), Reason: fmt.Sprintf("index out of range [0,%d)", optionCount)}
		}
	case KindIndexSet:
		for _, i := range v.set {
			if i < 0 || i >= optionCount {
				return &DecodeError{Type: t, Raw: v.String(), Reason: fmt.Sprintf("index %d out of range [0,%d)", i, optionCount)}
			}
		}
	case KindBoolSequence:
		if len(v.bools) != optionCount {
			return &DecodeError{Type: t, Raw: v.String(), Reason: fmt.Sprintf("length %d, want %d", len(v.bools), optionCount)}
		}
	}
	return nil
}

// Pad extends a BoolSequence with false until it has n entries. It never
// truncates. Other variants are returned unchanged.
func Pad(v Value, n int) Value {
	if v.kind != KindBoolSequence || len(v.bools) >= n {
		return v
	}
	out := make([]bool, n)
	copy(out, v.bools)
	return Value{kind: KindBoolSequence, bools: out}
}

// Default returns the safe fallback value for t: index 0, the empty set,
// an all-false sequence of optionCount entries, or empty text. Unknown
// types get empty text.
func Default(t Type, optionCount int) Value {
	spec, ok := Lookup(t)
	if !ok {
		return FreeText("")
	}
	switch spec.Shape {
	case KindSingleIndex:
		return SingleIndex(0)
	case KindIndexSet:
		return IndexSet()
	case KindBoolSequence:
		return BoolSequence(make([]bool, optionCount)...)
	default:
		return FreeText("")
	}
}
