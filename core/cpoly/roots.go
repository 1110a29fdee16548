// core/cpoly/roots.go
package cpoly

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrNoConvergence is returned together with the best root estimates when the
// simultaneous iteration did not settle within the iteration budget.
var ErrNoConvergence = errors.New("cpoly: root iteration did not converge")

// ErrZeroPoly is returned for the zero polynomial, which has no well-defined roots.
var ErrZeroPoly = errors.New("cpoly: zero polynomial")

const (
	maxAberthIter = 200
	polishSteps   = 2
	convTol       = 1e-13 // relative correction size at which a root is frozen
)

// Roots returns all Degree() roots of p using the Aberth–Ehrlich simultaneous
// iteration followed by Newton polishing. When hint has exactly Degree()
// entries they are used as starting values (warm start); otherwise the
// starting values are spread on a circle of radius |c0/cn|^(1/n).
//
// On ErrNoConvergence the returned slice still holds the last estimates.
func Roots(p Poly, hint []complex128) ([]complex128, error) {
	p = p.Trim()
	n := p.Degree()
	switch {
	case n < 0:
		return nil, ErrZeroPoly
	case n == 0:
		return []complex128{}, nil
	case n == 1:
		return []complex128{-p[0] / p[1]}, nil
	}

	// monic copy keeps the correction sizes scale free
	lead := p[n]
	m := make(Poly, n+1)
	for i := range p {
		m[i] = p[i] / lead
	}

	z := make([]complex128, n)
	if len(hint) == n {
		copy(z, hint)
		separate(z)
	} else {
		initialCircle(m, z)
	}

	done := make([]bool, n)
	left := n
	var err error
	for it := 0; left > 0; it++ {
		if it == maxAberthIter {
			err = ErrNoConvergence
			break
		}
		for k := range z {
			if done[k] {
				continue
			}
			pv, dv := m.EvalDeriv(z[k])
			if pv == 0 {
				done[k] = true
				left--
				continue
			}
			var s complex128
			for j := range z {
				if j != k {
					s += 1 / (z[k] - z[j])
				}
			}
			var corr complex128
			if dv == 0 {
				corr = pv
			} else {
				ratio := pv / dv
				den := 1 - ratio*s
				if den == 0 || cmplx.IsInf(s) || cmplx.IsNaN(den) {
					corr = ratio
				} else {
					corr = ratio / den
				}
			}
			if cmplx.IsNaN(corr) || cmplx.IsInf(corr) {
				// nudge off the degenerate point
				corr = complex(1e-8*(1+cmplx.Abs(z[k])), 1e-8)
			}
			z[k] -= corr
			if cmplx.Abs(corr) <= convTol*math.Max(1, cmplx.Abs(z[k])) {
				done[k] = true
				left--
			}
		}
	}

	for k := range z {
		z[k] = polish(m, z[k], polishSteps)
	}
	return z, err
}

// polish runs up to steps Newton iterations on p, keeping a step only when it
// reduces |p|.
func polish(p Poly, z complex128, steps int) complex128 {
	pv, dv := p.EvalDeriv(z)
	for i := 0; i < steps && pv != 0 && dv != 0; i++ {
		w := z - pv/dv
		pw, dw := p.EvalDeriv(w)
		if cmplx.Abs(pw) >= cmplx.Abs(pv) {
			break
		}
		z, pv, dv = w, pw, dw
	}
	return z
}

// initialCircle places n starting points on a circle whose radius is the
// geometric mean of the root moduli of the monic polynomial m.
func initialCircle(m Poly, z []complex128) {
	n := len(z)
	r := 0.0
	if a0 := cmplx.Abs(m[0]); a0 > 0 {
		r = math.Pow(a0, 1/float64(n))
	} else {
		// zero constant term: use the Cauchy-type bound instead
		for k := 0; k < n; k++ {
			if b := math.Pow(cmplx.Abs(m[k]), 1/float64(n-k)); b > r {
				r = b
			}
		}
	}
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		r = 1
	}
	// centre on the root barycentre (−c_{n−1}/n)
	c := -m[n-1] / complex(float64(n), 0)
	for k := range z {
		th := 2*math.Pi*float64(k)/float64(n) + 0.4
		z[k] = c + cmplx.Rect(r, th)
	}
}

// separate moves exactly coincident starting values apart; Aberth needs
// distinct points.
func separate(z []complex128) {
	for k := 1; k < len(z); k++ {
		for j := 0; j < k; j++ {
			if z[k] == z[j] {
				eps := 1e-7 * (1 + cmplx.Abs(z[k]))
				z[k] += cmplx.Rect(eps, float64(k))
			}
		}
	}
}
