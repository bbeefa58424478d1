package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmmc-sim/vmmc-sim/sim/geom"
)

func TestProposeMove_TranslationWithinBall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, dim := range []int{2, 3} {
		for i := 0; i < 1000; i++ {
			m := proposeMove(rng, dim, 1, 0.3, 0.5)
			require.Equal(t, MoveTranslation, m.Kind)
			require.Len(t, m.Displacement, dim)
			assert.LessOrEqual(t, m.magnitude(), 0.3)
		}
	}
}

func TestProposeMove_RotationWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		m := proposeMove(rng, 3, 0, 0.3, 0.5)
		require.Equal(t, MoveRotation, m.Kind)
		assert.Less(t, math.Abs(m.Angle), 0.5)
		var n2 float64
		for _, x := range m.Axis {
			n2 += x * x
		}
		assert.InDelta(t, 1, n2, 1e-9)
	}
}

func TestProposeMove_TypeFrequencyAndSymmetry(t *testing.T) {
	// GIVEN pTranslate = 0.3
	rng := rand.New(rand.NewSource(3))
	const draws = 20000
	translations, positiveX, positiveAngle := 0, 0, 0

	// WHEN many moves are proposed
	for i := 0; i < draws; i++ {
		m := proposeMove(rng, 2, 0.3, 0.3, 0.5)
		if m.Kind == MoveTranslation {
			translations++
			if m.Displacement[0] > 0 {
				positiveX++
			}
		} else if m.Angle > 0 {
			positiveAngle++
		}
	}

	// THEN the type ratio matches and each move is as likely as its inverse
	assert.InDelta(t, 0.3, float64(translations)/draws, 0.02)
	assert.InDelta(t, 0.5, float64(positiveX)/float64(translations), 0.03)
	assert.InDelta(t, 0.5, float64(positiveAngle)/float64(draws-translations), 0.03)
}

func TestMoveApply_ReverseUndoesForward(t *testing.T) {
	box, err := geom.NewBox([]float64{10, 10, 10})
	require.NoError(t, err)
	center := []float64{9.8, 0.1, 5}
	pos := []float64{0.5, 9.7, 5.5}
	orient := []float64{0, 0, 1}

	moves := map[string]Move{
		"translation": NewTranslationMove([]float64{0.4, -0.3, 0.2}),
		"rotation":    NewRotationMove(3, []float64{1, 1, 0}, 0.7),
	}
	for name, m := range moves {
		t.Run(name, func(t *testing.T) {
			fwdPos, fwdOrient := make([]float64, 3), make([]float64, 3)
			m.apply(box, center, pos, orient, true, false, fwdPos, fwdOrient)
			backPos, backOrient := make([]float64, 3), make([]float64, 3)
			m.apply(box, center, fwdPos, fwdOrient, true, true, backPos, backOrient)

			assert.InDeltaSlice(t, pos, backPos, 1e-9)
			assert.InDeltaSlice(t, orient, backOrient, 1e-9)
			for k := range fwdPos {
				assert.True(t, fwdPos[k] >= 0 && fwdPos[k] < 10, "component %d not wrapped: %v", k, fwdPos[k])
			}
		})
	}
}

func TestMoveApply_RotationAboutSeedAcrossBoundary(t *testing.T) {
	// GIVEN a seed near the right edge and a partner across the boundary
	box, err := geom.NewBox([]float64{10, 10})
	require.NoError(t, err)
	center := []float64{9.5, 5}
	pos := []float64{0.5, 5} // minimum-image separation (+1, 0)
	m := NewRotationMove(2, nil, math.Pi/2)

	out, orient := make([]float64, 2), make([]float64, 2)
	m.apply(box, center, pos, []float64{0, 0}, false, false, out, orient)

	// THEN the partner ends up one unit above the seed
	assert.InDeltaSlice(t, []float64{9.5, 6}, out, 1e-12)
}

func TestMoveApply_IsotropicOrientationUntouched(t *testing.T) {
	box, err := geom.NewBox([]float64{10, 10})
	require.NoError(t, err)
	m := NewRotationMove(2, nil, 1)
	orient := []float64{0, 0}
	out, outOrient := make([]float64, 2), make([]float64, 2)

	m.apply(box, []float64{5, 5}, []float64{5, 5}, orient, false, false, out, outOrient)

	assert.Equal(t, []float64{0, 0}, outOrient)
	assert.InDeltaSlice(t, []float64{5, 5}, out, 1e-12)
}

func TestMoveKind_String(t *testing.T) {
	assert.Equal(t, "translation", MoveTranslation.String())
	assert.Equal(t, "rotation", MoveRotation.String())
	assert.Equal(t, "unknown", MoveKind(7).String())
}
