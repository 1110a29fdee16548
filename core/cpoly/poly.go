// core/cpoly/poly.go
package cpoly

import "math/cmplx"

// Poly is a complex polynomial with coefficients in ascending order:
// p(z) = c[0] + c[1] z + ... + c[n] z^n.
type Poly []complex128

// Const returns the constant polynomial c.
func Const(c complex128) Poly { return Poly{c} }

// Linear returns a + b z.
func Linear(a, b complex128) Poly { return Poly{a, b} }

// Degree is the index of the highest non-zero coefficient (-1 for the zero polynomial).
func (p Poly) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return -1
}

// Trim drops exactly-zero leading coefficients.
func (p Poly) Trim() Poly {
	return p[:p.Degree()+1]
}

func (p Poly) Add(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	copy(out, p)
	for i, c := range q {
		out[i] += c
	}
	return out
}

func (p Poly) Sub(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	copy(out, p)
	for i, c := range q {
		out[i] -= c
	}
	return out
}

func (p Poly) Scale(c complex128) Poly {
	out := make(Poly, len(p))
	for i, v := range p {
		out[i] = v * c
	}
	return out
}

func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out
}

// MulLinear returns p·(z − r) without allocating an intermediate factor.
func (p Poly) MulLinear(r complex128) Poly {
	out := make(Poly, len(p)+1)
	for i, c := range p {
		out[i+1] += c
		out[i] -= c * r
	}
	return out
}

// FromRoots returns Π (z − r_k), monic.
func FromRoots(roots []complex128) Poly {
	p := Poly{1}
	for _, r := range roots {
		p = p.MulLinear(r)
	}
	return p
}

// Eval evaluates p at z by Horner's rule.
func (p Poly) Eval(z complex128) complex128 {
	var v complex128
	for i := len(p) - 1; i >= 0; i-- {
		v = v*z + p[i]
	}
	return v
}

// EvalDeriv returns p(z) and p'(z).
func (p Poly) EvalDeriv(z complex128) (complex128, complex128) {
	var v, d complex128
	for i := len(p) - 1; i >= 0; i-- {
		d = d*z + v
		v = v*z + p[i]
	}
	return v, d
}

// Deriv returns p'.
func (p Poly) Deriv() Poly {
	if len(p) <= 1 {
		return Poly{}
	}
	out := make(Poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = p[i] * complex(float64(i), 0)
	}
	return out
}

// Shift returns q(w) = p(w + c), i.e. the same polynomial in a frame whose
// origin sits at c.
func (p Poly) Shift(c complex128) Poly {
	out := make(Poly, len(p))
	copy(out, p)
	n := len(out)
	// repeated synthetic division (Taylor shift)
	for k := 0; k < n-1; k++ {
		for i := n - 2; i >= k; i-- {
			out[i] += c * out[i+1]
		}
	}
	return out
}

// Norm is the largest coefficient modulus.
func (p Poly) Norm() float64 {
	m := 0.0
	for _, c := range p {
		if a := cmplx.Abs(c); a > m {
			m = a
		}
	}
	return m
}
