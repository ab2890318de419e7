// Package smoothstep provides the fixed family of Hermite blending polynomials
// used to weight interpolation between reference points.
package smoothstep

import (
	"errors"
	"fmt"
)

// MaxOrder is the highest supported polynomial order.
const MaxOrder = 6

// ErrInvalidOrder is returned when an order outside [0, MaxOrder] is requested.
var ErrInvalidOrder = errors.New("invalid smoothstep order")

// coefficients[n] holds the polynomial of order n divided by x^(n+1),
// lowest power first. Order n has degree 2n+1 and is C^n continuous
// at both ends of [0,1].
var coefficients = [MaxOrder + 1][]float64{
	{1},
	{3, -2},
	{10, -15, 6},
	{35, -84, 70, -20},
	{126, -420, 540, -315, 70},
	{462, -1980, 3465, -3080, 1386, -252},
	{1716, -9009, 20020, -24024, 16380, -6006, 924},
}

// SmoothStep evaluates one polynomial of the family. The zero value is the
// linear ramp (order 0).
type SmoothStep struct {
	order int
}

// New returns a SmoothStep of the given order.
func New(order int) (SmoothStep, error) {
	if order < 0 || order > MaxOrder {
		return SmoothStep{}, fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidOrder, order, MaxOrder)
	}
	return SmoothStep{order: order}, nil
}

// MustNew is like New but panics on error.
func MustNew(order int) SmoothStep {
	s, err := New(order)
	if err != nil {
		panic(err)
	}
	return s
}

// Order returns the configured polynomial order.
func (s SmoothStep) Order() int {
	return s.order
}

// Evaluate returns the blend weight for x. Inputs are clamped to [0,1] first,
// so x <= 0 yields exactly 0 and x >= 1 yields exactly 1.
func (s SmoothStep) Evaluate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	// The family is odd-symmetric about (0.5, 0.5). Evaluating the upper half
	// through the mirror keeps the result monotone near 1 where the
	// alternating coefficients would otherwise cancel badly.
	if x > 0.5 {
		return 1 - s.eval(1-x)
	}
	return s.eval(x)
}

// eval computes the raw polynomial for x in [0, 0.5].
func (s SmoothStep) eval(x float64) float64 {
	c := coefficients[s.order]

	q := c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		q = q*x + c[i]
	}

	lead := x
	for i := 0; i < s.order; i++ {
		lead *= x
	}
	return lead * q
}
