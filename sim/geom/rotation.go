package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation is a proper rotation about the origin. In 2D the axis is
// implicitly z and only the angle is used.
type Rotation struct {
	dimension int
	angle     float64
	axis      mgl64.Vec3
	quat      mgl64.Quat
	mat2      mgl64.Mat2
}

// NewRotation builds a rotation by angle (radians) about axis. The axis is
// normalised; a zero axis in 3D falls back to z. For dimension 2 axis may be nil.
func NewRotation(dimension int, axis []float64, angle float64) Rotation {
	r := Rotation{dimension: dimension, angle: angle, axis: mgl64.Vec3{0, 0, 1}}
	if dimension == 2 {
		r.mat2 = mgl64.Rotate2D(angle)
		return r
	}
	a := mgl64.Vec3{axis[0], axis[1], axis[2]}
	if l := a.Len(); l > 0 {
		r.axis = a.Mul(1 / l)
	}
	r.quat = mgl64.QuatRotate(angle, r.axis)
	return r
}

// Angle returns the rotation angle in radians.
func (r Rotation) Angle() float64 { return r.angle }

// Axis returns the unit rotation axis (z for 2D rotations).
func (r Rotation) Axis() []float64 { return []float64{r.axis[0], r.axis[1], r.axis[2]} }

// Inverse returns the rotation by -angle about the same axis.
func (r Rotation) Inverse() Rotation {
	if r.dimension == 2 {
		return NewRotation(2, nil, -r.angle)
	}
	return NewRotation(3, r.axis[:], -r.angle)
}

// Apply rotates v and writes the result into out, which may alias v.
func (r Rotation) Apply(v, out []float64) []float64 {
	if r.dimension == 2 {
		w := r.mat2.Mul2x1(mgl64.Vec2{v[0], v[1]})
		out[0], out[1] = w[0], w[1]
		return out
	}
	w := r.quat.Rotate(mgl64.Vec3{v[0], v[1], v[2]})
	out[0], out[1], out[2] = w[0], w[1], w[2]
	return out
}

// Normalise scales v in place to unit length and returns its original norm.
func Normalise(v []float64) float64 {
	var n2 float64
	for _, x := range v {
		n2 += x * x
	}
	n := math.Sqrt(n2)
	if n > 0 {
		for i := range v {
			v[i] /= n
		}
	}
	return n
}
