package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotation_2D_QuarterTurn(t *testing.T) {
	r := NewRotation(2, nil, math.Pi/2)
	got := r.Apply([]float64{1, 0}, make([]float64, 2))
	assert.InDeltaSlice(t, []float64{0, 1}, got, 1e-12)
}

func TestRotation_3D_AboutZ(t *testing.T) {
	r := NewRotation(3, []float64{0, 0, 2}, math.Pi/2)
	got := r.Apply([]float64{1, 0, 5}, make([]float64, 3))
	assert.InDeltaSlice(t, []float64{0, 1, 5}, got, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 1}, r.Axis(), 1e-12)
}

func TestRotation_InverseRestoresVector(t *testing.T) {
	tests := []struct {
		name string
		dim  int
		axis []float64
		v    []float64
	}{
		{"2d", 2, nil, []float64{0.3, -1.7}},
		{"3d oblique axis", 3, []float64{1, -2, 0.5}, []float64{0.3, -1.7, 2.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRotation(tt.dim, tt.axis, 0.83)
			out := r.Apply(tt.v, make([]float64, tt.dim))
			back := r.Inverse().Apply(out, out)
			assert.InDeltaSlice(t, tt.v, back, 1e-12)
		})
	}
}

func TestRotation_PreservesNorm(t *testing.T) {
	r := NewRotation(3, []float64{0.2, 0.9, -0.4}, 2.1)
	v := []float64{1, 2, 3}
	out := r.Apply(v, make([]float64, 3))
	assert.InDelta(t, math.Sqrt(14), math.Sqrt(out[0]*out[0]+out[1]*out[1]+out[2]*out[2]), 1e-12)
}

func TestRotation_ZeroAxisFallsBackToZ(t *testing.T) {
	r := NewRotation(3, []float64{0, 0, 0}, math.Pi)
	got := r.Apply([]float64{1, 0, 0}, make([]float64, 3))
	assert.InDeltaSlice(t, []float64{-1, 0, 0}, got, 1e-12)
}

func TestNormalise(t *testing.T) {
	v := []float64{3, 4}
	n := Normalise(v)
	assert.Equal(t, 5.0, n)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, v, 1e-12)

	zero := []float64{0, 0, 0}
	assert.Equal(t, 0.0, Normalise(zero))
	assert.Equal(t, []float64{0, 0, 0}, zero)
}
