// Package aicodec decodes the loosely typed JSON returned by the generation
// service into validated question records.
package aicodec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/latihan/internal/answer"
)

// trueTokens are the lower-cased tokens that decode to true in a
// comma-separated boolean answer, for either boolean variant.
var trueTokens = map[string]bool{
	"true":   true,
	"benar":  true,
	"b":      true,
	"sesuai": true,
	"s":      true,
}

// DecodeAnswer parses the raw correctAnswer text for t. optionCount is the
// length of the item's options; range checks are skipped when it is zero.
func DecodeAnswer(t answer.Type, raw string, optionCount int) (answer.Value, error) {
	spec, ok := answer.Lookup(t)
	if !ok {
		return answer.Value{}, fmt.Errorf("%w: %q", answer.ErrUnknownType, string(t))
	}

	var (
		v   answer.Value
		err error
	)
	switch spec.Shape {
	case answer.KindSingleIndex:
		v, err = decodeSingle(t, raw)
	case answer.KindIndexSet:
		v, err = decodeSet(t, raw)
	case answer.KindBoolSequence:
		v, err = decodeBools(t, raw, optionCount)
	default:
		return answer.FreeText(raw), nil
	}
	if err != nil {
		return answer.Value{}, err
	}
	if err := answer.CheckRange(t, v, optionCount); err != nil {
		return answer.Value{}, err
	}
	return v, nil
}

// SafeDecodeAnswer never fails: any error, including a panic inside the
// parser, yields the type's default and the error for flagging.
func SafeDecodeAnswer(t answer.Type, raw string, optionCount int) (v answer.Value, derr *answer.DecodeError) {
	defer func() {
		if p := recover(); p != nil {
			v = answer.Default(t, optionCount)
			derr = &answer.DecodeError{Type: t, Raw: raw, Reason: fmt.Sprintf("parser panic: %v", p)}
		}
	}()

	v, err := DecodeAnswer(t, raw, optionCount)
	if err == nil {
		return v, nil
	}
	de, ok := err.(*answer.DecodeError)
	if !ok {
		de = &answer.DecodeError{Type: t, Raw: raw, Reason: "undecodable", Err: err}
	}
	return answer.Default(t, optionCount), de
}

func decodeSingle(t answer.Type, raw string) (answer.Value, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return answer.Value{}, &answer.DecodeError{Type: t, Raw: raw, Reason: "no digits"}
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return answer.Value{}, &answer.DecodeError{Type: t, Raw: raw, Reason: "not an integer", Err: err}
	}
	return answer.SingleIndex(i), nil
}

func decodeSet(t answer.Type, raw string) (answer.Value, error) {
	s := strings.TrimSpace(raw)
	if isBracketed(s) {
		var nums []float64
		if err := json.Unmarshal([]byte(s), &nums); err != nil {
			return answer.Value{}, &answer.DecodeError{Type: t, Raw: raw, Reason: "want array of integers", Err: err}
		}
		idx := make([]int, 0, len(nums))
		for _, n := range nums {
			if n != math.Trunc(n) {
				return answer.Value{}, &answer.DecodeError{Type: t, Raw: raw, Reason: fmt.Sprintf("%v is not an integer", n)}
			}
			idx = append(idx, int(n))
		}
		return answer.IndexSet(idx...), nil
	}

	var idx []int
	for _, tok := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(tok)); err == nil {
			idx = append(idx, n)
		}
	}
	return answer.IndexSet(idx...), nil
}

func decodeBools(t answer.Type, raw string, optionCount int) (answer.Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	var bs []bool
	if isBracketed(s) {
		if err := json.Unmarshal([]byte(s), &bs); err != nil {
			return answer.Value{}, &answer.DecodeError{Type: t, Raw: raw, Reason: "want array of booleans", Err: err}
		}
	} else if s != "" {
		for _, tok := range strings.Split(s, ",") {
			bs = append(bs, trueTokens[strings.TrimSpace(tok)])
		}
	}
	return answer.Pad(answer.BoolSequence(bs...), optionCount), nil
}

func isBracketed(s string) bool {
	return strings.HasPrefix(s, "[")
}
