package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestIdentity(t *testing.T) {
	var tr Transform
	p := r3.Vec{X: 1, Y: -2, Z: 3}

	if got := tr.Apply(p); got != p {
		t.Errorf("zero Transform Apply(%v) = %v", p, got)
	}
	if got := Identity().ApplyVector(p); got != p {
		t.Errorf("Identity ApplyVector(%v) = %v", p, got)
	}
	if !tr.IsIdentity() {
		t.Error("zero Transform should report identity")
	}
	m := tr.Matrix()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 || m[3] != 0 {
		t.Errorf("identity matrix = %v", m)
	}
}

func TestTranslationIgnoredForVectors(t *testing.T) {
	tr := Translation(r3.Vec{X: 10, Y: 20, Z: 30})
	p := r3.Vec{X: 1, Y: 2, Z: 3}

	if got := tr.Apply(p); !near(got, r3.Vec{X: 11, Y: 22, Z: 33}, 1e-12) {
		t.Errorf("Apply = %v", got)
	}
	if got := tr.ApplyVector(p); !near(got, p, 1e-12) {
		t.Errorf("ApplyVector = %v, want %v", got, p)
	}
}

func TestRotations(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   r3.Vec
		want r3.Vec
	}{
		{"z quarter turn", RotationZ(math.Pi / 2), r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{"x quarter turn", RotationX(math.Pi / 2), r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"y quarter turn", RotationY(math.Pi / 2), r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"scaling", Scaling(r3.Vec{X: 2, Y: 3, Z: 4}), r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 2, Y: 3, Z: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.ApplyVector(tt.in); !near(got, tt.want, 1e-12) {
				t.Errorf("ApplyVector(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestComposeOrder(t *testing.T) {
	// Scale first, then translate.
	tr := Translation(r3.Vec{X: 1}).Compose(Scaling(r3.Vec{X: 2, Y: 2, Z: 2}))
	got := tr.Apply(r3.Vec{X: 3})
	if !near(got, r3.Vec{X: 7}, 1e-12) {
		t.Errorf("Apply = %v, want (7,0,0)", got)
	}

	if got := Identity().Compose(tr).Apply(r3.Vec{X: 3}); !near(got, r3.Vec{X: 7}, 1e-12) {
		t.Errorf("identity compose changed result: %v", got)
	}
}

func TestInverse(t *testing.T) {
	tr := Translation(r3.Vec{X: 4, Y: -1}).Compose(RotationZ(0.7)).Compose(Scaling(r3.Vec{X: 2, Y: 0.5, Z: 3}))
	inv, err := tr.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	p := r3.Vec{X: 0.3, Y: 7, Z: -2}
	if got := inv.Apply(tr.Apply(p)); !near(got, p, 1e-9) {
		t.Errorf("round trip = %v, want %v", got, p)
	}

	if _, err := Scaling(r3.Vec{X: 1, Y: 0, Z: 1}).Inverse(); err == nil {
		t.Error("expected error inverting singular transform")
	}
}
