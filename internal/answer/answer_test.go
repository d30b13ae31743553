package answer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		label   string
		want    Type
		wantErr bool
	}{
		{"Pilihan Ganda", TypeSingleChoice, false},
		{"  pilihan ganda ", TypeSingleChoice, false},
		{"Pilihan Jamak (MCMA)", TypeMultiSelect, false},
		{"(Benar/Salah)", TypeTrueFalse, false},
		{"(sesuai/tidak sesuai)", TypeMatch, false},
		{"isian", TypeFillIn, false},
		{"URAIAN", TypeEssay, false},
		{"Essay", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.label)
		if tt.wantErr {
			require.Error(t, err, tt.label)
			assert.True(t, errors.Is(err, ErrUnknownType))
			continue
		}
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.want, got)
	}
}

func TestTypes_AllRegistered(t *testing.T) {
	types := Types()
	require.Len(t, types, 6)
	for _, ty := range types {
		spec, ok := Lookup(ty)
		require.True(t, ok, ty)
		assert.Equal(t, ty, spec.Type)
	}
	assert.False(t, Type("bogus").Known())
}

func TestIsLegal(t *testing.T) {
	tests := []struct {
		typ  Type
		v    Value
		want bool
	}{
		{TypeSingleChoice, SingleIndex(1), true},
		{TypeSingleChoice, IndexSet(1), false},
		{TypeMultiSelect, IndexSet(0, 2), true},
		{TypeMultiSelect, SingleIndex(0), false},
		{TypeTrueFalse, BoolSequence(true), true},
		{TypeMatch, BoolSequence(false), true},
		{TypeMatch, FreeText("S"), false},
		{TypeFillIn, FreeText("x"), true},
		{TypeEssay, FreeText(""), true},
		{TypeEssay, Value{}, false},
		{Type("bogus"), FreeText("x"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLegal(tt.typ, tt.v), "%s / %s", tt.typ, tt.v)
	}
}

func TestIndexSet_NormalizesOrderAndDuplicates(t *testing.T) {
	v := IndexSet(2, 0, 2, 1)
	assert.Equal(t, []int{0, 1, 2}, v.Indices())
	assert.True(t, v.Equal(IndexSet(1, 2, 0)))
	assert.Equal(t, 3, v.Len())
}

func TestValue_AccessorsReturnCopies(t *testing.T) {
	v := BoolSequence(true, false)
	bs := v.Bools()
	bs[0] = false
	assert.Equal(t, []bool{true, false}, v.Bools())

	s := IndexSet(1, 3)
	is := s.Indices()
	is[0] = 9
	assert.Equal(t, []int{1, 3}, s.Indices())
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		v       Value
		options int
		wantErr bool
	}{
		{"single in range", TypeSingleChoice, SingleIndex(4), 5, false},
		{"single out of range", TypeSingleChoice, SingleIndex(5), 5, true},
		{"single negative", TypeSingleChoice, SingleIndex(-1), 5, true},
		{"set in range", TypeMultiSelect, IndexSet(0, 3), 4, false},
		{"set out of range", TypeMultiSelect, IndexSet(0, 4), 4, true},
		{"bools exact", TypeTrueFalse, BoolSequence(true, false, true), 3, false},
		{"bools short", TypeTrueFalse, BoolSequence(true), 3, true},
		{"bools long", TypeMatch, BoolSequence(true, true, true, true), 3, true},
		{"deferred without options", TypeSingleChoice, SingleIndex(3), 0, false},
		{"free text ignores options", TypeFillIn, FreeText("x"), 0, false},
		{"wrong shape", TypeMultiSelect, SingleIndex(0), 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange(tt.typ, tt.v, tt.options)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var de *DecodeError
			require.True(t, errors.As(err, &de), "want *DecodeError, got %T", err)
			assert.Equal(t, tt.typ, de.Type)
		})
	}
}

func TestPad_NeverTruncates(t *testing.T) {
	assert.Equal(t, []bool{true, false, false}, Pad(BoolSequence(true), 3).Bools())
	assert.Equal(t, []bool{true, true, true}, Pad(BoolSequence(true, true, true), 2).Bools())
	assert.True(t, Pad(SingleIndex(2), 5).Equal(SingleIndex(2)))
}

func TestDefault(t *testing.T) {
	assert.True(t, Default(TypeSingleChoice, 4).Equal(SingleIndex(0)))
	assert.True(t, Default(TypeMultiSelect, 4).Equal(IndexSet()))
	assert.Equal(t, []bool{false, false, false}, Default(TypeTrueFalse, 3).Bools())
	assert.True(t, Default(TypeFillIn, 0).Equal(FreeText("")))

	// Defaulting is deterministic.
	assert.True(t, Default(TypeMatch, 2).Equal(Default(TypeMatch, 2)))
}

func TestMarshalJSON_WireShapes(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{SingleIndex(3), `3`},
		{IndexSet(2, 0), `[0,2]`},
		{IndexSet(), `[]`},
		{BoolSequence(true, false), `[true,false]`},
		{FreeText("fotosintesis"), `"fotosintesis"`},
		{Value{}, `null`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.v)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(b))
	}
}

func TestUnmarshalFor(t *testing.T) {
	v, err := UnmarshalFor(TypeMultiSelect, json.RawMessage(`[2,0,2]`))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, v.Indices())

	v, err = UnmarshalFor(TypeMatch, json.RawMessage(`[true,false]`))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, v.Bools())

	_, err = UnmarshalFor(TypeSingleChoice, json.RawMessage(`"B"`))
	var de *DecodeError
	require.True(t, errors.As(err, &de))

	_, err = UnmarshalFor(Type("nope"), json.RawMessage(`1`))
	assert.True(t, errors.Is(err, ErrUnknownType))
}
