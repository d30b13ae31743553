package exercise

import (
	"math/rand/v2"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

// ShuffleOptions returns a copy of rec with its options permuted and the
// correct answer remapped to the new positions. Option images move with
// their options. Types without options are returned unchanged.
func ShuffleOptions(rec question.Record, rng *rand.Rand) question.Record {
	n := len(rec.Options)
	if n < 2 {
		return rec
	}
	perm := rng.Perm(n) // new position j shows old option perm[j]
	return Permute(rec, perm)
}

// Permute applies perm to rec's options: new position j shows old option
// perm[j]. perm must be a permutation of [0, len(rec.Options)).
func Permute(rec question.Record, perm []int) question.Record {
	c := rec.Clone()
	newPos := make([]int, len(perm))
	for j, old := range perm {
		c.Options[j] = rec.Options[old]
		newPos[old] = j
	}
	if len(rec.OptionImages) == len(perm) {
		for j, old := range perm {
			c.OptionImages[j] = rec.OptionImages[old]
		}
	}

	v := rec.CorrectAnswer
	switch v.Kind() {
	case answer.KindSingleIndex:
		if i, _ := v.Index(); i >= 0 && i < len(newPos) {
			c.CorrectAnswer = answer.SingleIndex(newPos[i])
		}
	case answer.KindIndexSet:
		var mapped []int
		for _, i := range v.Indices() {
			if i >= 0 && i < len(newPos) {
				mapped = append(mapped, newPos[i])
			}
		}
		c.CorrectAnswer = answer.IndexSet(mapped...)
	case answer.KindBoolSequence:
		old := v.Bools()
		if len(old) == len(perm) {
			bs := make([]bool, len(perm))
			for j, o := range perm {
				bs[j] = old[o]
			}
			c.CorrectAnswer = answer.BoolSequence(bs...)
		}
	}
	return c
}
