package generators

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// curve is a quadratic y = c*x^2 + b*x + a, stored as {a, b, c}.
type curve [3]float64

var identityCurve = curve{0, 1, 0}

func (c curve) apply(x float64) float64 {
	return c[2]*x*x + c[1]*x + c[0]
}

// curveSolver fits quadratics through three points. The matrices and the
// factorization are kept between calls, so envelopes can start segments
// on the audio path.
type curveSolver struct {
	rows, ys []float64
	m        *mat.Dense
	y, abc   *mat.VecDense
	lu       mat.LU
}

func newCurveSolver() *curveSolver {
	s := &curveSolver{rows: make([]float64, 9), ys: make([]float64, 3)}
	s.m = mat.NewDense(3, 3, s.rows)
	s.y = mat.NewVecDense(3, s.ys)
	s.abc = mat.NewVecDense(3, nil)
	return s
}

// solve fits a quadratic through three points. If all three points are the
// same point, the identity is returned; if the system is singular, the zero
// curve is returned.
func (s *curveSolver) solve(x0, y0, x1, y1, x2, y2 float64) curve {
	if x0 == x1 && x1 == x2 && y0 == y1 && y1 == y2 {
		return identityCurve
	}
	for i, x := range [3]float64{x0, x1, x2} {
		s.rows[3*i], s.rows[3*i+1], s.rows[3*i+2] = 1, x, x*x
	}
	s.ys[0], s.ys[1], s.ys[2] = y0, y1, y2
	s.lu.Factorize(s.m)
	if err := s.lu.SolveVecTo(s.abc, false, s.y); err != nil {
		// an ill-conditioned system still yields a usable solution
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || math.IsNaN(float64(cond)) {
			return curve{}
		}
	}
	ret := curve{s.abc.AtVec(0), s.abc.AtVec(1), s.abc.AtVec(2)}
	for _, v := range ret {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return curve{}
		}
	}
	return ret
}
