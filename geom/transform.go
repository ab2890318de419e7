// Package geom provides affine transforms over gonum r3 vectors.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine map stored as a 4x4 homogeneous matrix.
// The zero value is the identity.
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{}
}

// FromMatrix builds a transform from a row-major 4x4 homogeneous matrix.
func FromMatrix(rowMajor [16]float64) Transform {
	data := make([]float64, 16)
	copy(data, rowMajor[:])
	return Transform{m: mat.NewDense(4, 4, data)}
}

// Translation returns a transform that offsets points by v.
func Translation(v r3.Vec) Transform {
	return FromMatrix([16]float64{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	})
}

// Scaling returns a transform that scales each axis independently.
func Scaling(s r3.Vec) Transform {
	return FromMatrix([16]float64{
		s.X, 0, 0, 0,
		0, s.Y, 0, 0,
		0, 0, s.Z, 0,
		0, 0, 0, 1,
	})
}

// RotationX returns a right-handed rotation of theta radians about the X axis.
func RotationX(theta float64) Transform {
	s, c := math.Sincos(theta)
	return FromMatrix([16]float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// RotationY returns a right-handed rotation of theta radians about the Y axis.
func RotationY(theta float64) Transform {
	s, c := math.Sincos(theta)
	return FromMatrix([16]float64{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotationZ returns a right-handed rotation of theta radians about the Z axis.
func RotationZ(theta float64) Transform {
	s, c := math.Sincos(theta)
	return FromMatrix([16]float64{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// IsIdentity reports whether t is the zero-value identity.
func (t Transform) IsIdentity() bool {
	return t.m == nil
}

// Compose returns the transform that applies u first and then t.
func (t Transform) Compose(u Transform) Transform {
	switch {
	case t.m == nil:
		return u
	case u.m == nil:
		return t
	}
	var out mat.Dense
	out.Mul(t.m, u.m)
	return Transform{m: &out}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() (Transform, error) {
	if t.m == nil {
		return t, nil
	}
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return Transform{}, fmt.Errorf("inverting transform: %w", err)
	}
	return Transform{m: &inv}, nil
}

// Apply maps a point, including the translation part.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return t.apply(p, 1)
}

// ApplyVector maps a direction or offset, ignoring translation.
func (t Transform) ApplyVector(v r3.Vec) r3.Vec {
	return t.apply(v, 0)
}

func (t Transform) apply(v r3.Vec, w float64) r3.Vec {
	if t.m == nil {
		return v
	}
	in := mat.NewVecDense(4, []float64{v.X, v.Y, v.Z, w})
	var out mat.VecDense
	out.MulVec(t.m, in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Matrix returns the row-major 4x4 homogeneous matrix.
func (t Transform) Matrix() [16]float64 {
	var out [16]float64
	if t.m == nil {
		out[0], out[5], out[10], out[15] = 1, 1, 1, 1
		return out
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = t.m.At(i, j)
		}
	}
	return out
}
