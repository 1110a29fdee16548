package cpoly

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func closeC(a, b complex128, tol float64) bool { return cmplx.Abs(a-b) <= tol }

func TestPolyArithmetic(t *testing.T) {
	p := Poly{1, 2}     // 1 + 2z
	q := Poly{-1, 0, 1} // z² − 1

	t.Run("mul", func(t *testing.T) {
		got := p.Mul(q)
		want := Poly{-1, -2, 1, 2}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Mul[%d]=%v want %v", i, got[i], want[i])
			}
		}
	})
	t.Run("add/sub", func(t *testing.T) {
		s := p.Add(q).Sub(q)
		if s.Trim().Degree() != 1 || s[0] != 1 || s[1] != 2 {
			t.Fatalf("Add/Sub roundtrip gave %v", s)
		}
	})
	t.Run("eval deriv", func(t *testing.T) {
		z := complex(0.3, -1.2)
		v, d := q.EvalDeriv(z)
		if !closeC(v, z*z-1, 1e-15) || !closeC(d, 2*z, 1e-15) {
			t.Fatalf("EvalDeriv=%v,%v", v, d)
		}
		if !closeC(q.Deriv().Eval(z), d, 1e-15) {
			t.Fatalf("Deriv disagrees with EvalDeriv")
		}
	})
	t.Run("from roots", func(t *testing.T) {
		r := []complex128{1, -2, complex(0, 3)}
		f := FromRoots(r)
		for _, x := range r {
			if v := f.Eval(x); cmplx.Abs(v) > 1e-12 {
				t.Fatalf("FromRoots(%v) at %v = %v", r, x, v)
			}
		}
	})
	t.Run("shift", func(t *testing.T) {
		c := complex(0.7, 0.2)
		f := FromRoots([]complex128{1, complex(2, 1), -3})
		g := f.Shift(c)
		for _, w := range []complex128{0, 1, complex(-0.5, 2)} {
			if !closeC(g.Eval(w), f.Eval(w+c), 1e-12) {
				t.Fatalf("Shift mismatch at %v: %v vs %v", w, g.Eval(w), f.Eval(w+c))
			}
		}
	})
	t.Run("degree of zero", func(t *testing.T) {
		if (Poly{0, 0}).Degree() != -1 {
			t.Fatalf("zero polynomial should have degree -1")
		}
	})
}

func nearest(z []complex128, w complex128) float64 {
	best := math.Inf(1)
	for _, x := range z {
		if d := cmplx.Abs(x - w); d < best {
			best = d
		}
	}
	return best
}

func TestRoots(t *testing.T) {
	cases := []struct {
		name  string
		roots []complex128
	}{
		{"real", []complex128{-2, 0.5, 3}},
		{"complex", []complex128{complex(1, 1), complex(1, -1), complex(-0.3, 2), 4}},
		{"zero root", []complex128{0, 1, complex(0, -2)}},
		{"lens-like spread", []complex128{complex(1e-3, 0), complex(-0.9, 0.1), complex(1.5, -0.4), complex(0.2, 1.1), complex(-2, -1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := FromRoots(tc.roots).Scale(complex(2.5, -1))
			got, err := Roots(p, nil)
			if err != nil {
				t.Fatalf("Roots: %v", err)
			}
			if len(got) != len(tc.roots) {
				t.Fatalf("got %d roots, want %d", len(got), len(tc.roots))
			}
			for _, w := range tc.roots {
				if d := nearest(got, w); d > 1e-9 {
					t.Fatalf("root %v missing (closest at distance %g) in %v", w, d, got)
				}
			}
		})
	}
}

func TestRoots_WarmStart(t *testing.T) {
	want := []complex128{complex(0.5, 0.5), -1, complex(2, -0.3), complex(-0.2, -1.5)}
	p := FromRoots(want)
	hint := make([]complex128, len(want))
	for i, r := range want {
		hint[i] = r + complex(0.01, -0.02)
	}
	got, err := Roots(p, hint)
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	// warm start keeps the hint ordering
	for i := range want {
		if !closeC(got[i], want[i], 1e-10) {
			t.Fatalf("root %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRoots_Degenerate(t *testing.T) {
	if _, err := Roots(Poly{0, 0}, nil); !errors.Is(err, ErrZeroPoly) {
		t.Fatalf("expected ErrZeroPoly, got %v", err)
	}
	r, err := Roots(Poly{3}, nil)
	if err != nil || len(r) != 0 {
		t.Fatalf("constant: %v %v", r, err)
	}
	r, err = Roots(Poly{-4, 2, 0}, nil)
	if err != nil || len(r) != 1 || r[0] != 2 {
		t.Fatalf("linear with trailing zero: %v %v", r, err)
	}
}
