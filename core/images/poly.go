package images

import (
	"math/cmplx"

	"mlens-core/cpoly"
	"mlens-core/lens"
)

// LensPoly builds the complex polynomial of degree N²+1 whose roots contain
// all images of the point source at zeta. With P = Π(z−zⱼ),
// Q = Σ mⱼ Π_{k≠j}(z−z_k) and Rᵢ = (ζ̄−z̄ᵢ)P + Q it is
//
//	(z − ζ) Π Rᵢ − P Σ mᵢ Π_{k≠i} R_k.
func LensPoly(cfg lens.Config, zeta complex128) cpoly.Poly {
	n := cfg.N()
	ms := cfg.Lenses()

	lin := make([]cpoly.Poly, n)
	for i, m := range ms {
		lin[i] = cpoly.Linear(-m.Pos, 1)
	}
	P := productExcept(lin, -1)
	Q := cpoly.Poly{0}
	for j, m := range ms {
		Q = Q.Add(productExcept(lin, j).Scale(complex(m.M, 0)))
	}
	R := make([]cpoly.Poly, n)
	for i, m := range ms {
		R[i] = P.Scale(cmplx.Conj(zeta - m.Pos)).Add(Q)
	}
	left := productExcept(R, -1).MulLinear(zeta)
	S := cpoly.Poly{0}
	for i, m := range ms {
		S = S.Add(productExcept(R, i).Scale(complex(m.M, 0)))
	}
	return left.Sub(P.Mul(S)).Trim()
}

// productExcept multiplies all factors except index skip (−1 keeps all).
func productExcept(fs []cpoly.Poly, skip int) cpoly.Poly {
	out := cpoly.Poly{1}
	for k, f := range fs {
		if k != skip {
			out = out.Mul(f)
		}
	}
	return out
}
