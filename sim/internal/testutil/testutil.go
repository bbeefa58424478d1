// Package testutil provides shared test infrastructure for the VMMC engine.
// It consolidates scripted random sources and assertion helpers used across
// sim/ and its sub-package tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"
)

// ScriptedSource is a random source that replays fixed Float64 values
// before falling back to a seeded *rand.Rand. It satisfies sim.RandomSource.
type ScriptedSource struct {
	Floats   []float64
	Drawn    int // number of Float64 calls served from Floats
	fallback *rand.Rand
}

// NewScriptedSource creates a source that returns floats in order, then
// continues with a deterministic stream seeded from seed.
func NewScriptedSource(seed int64, floats ...float64) *ScriptedSource {
	return &ScriptedSource{Floats: floats, fallback: rand.New(rand.NewSource(seed))}
}

// Float64 returns the next scripted value, or a fallback deviate.
func (s *ScriptedSource) Float64() float64 {
	if s.Drawn < len(s.Floats) {
		v := s.Floats[s.Drawn]
		s.Drawn++
		return v
	}
	return s.fallback.Float64()
}

// Intn delegates to the fallback stream.
func (s *ScriptedSource) Intn(n int) int { return s.fallback.Intn(n) }

// NormFloat64 delegates to the fallback stream.
func (s *ScriptedSource) NormFloat64() float64 { return s.fallback.NormFloat64() }

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertBitIdentical fails unless both slices hold exactly the same bits.
func AssertBitIdentical(t *testing.T, name string, want, got []float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
