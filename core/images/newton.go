package images

import (
	"fmt"
	"math"
	"math/cmplx"

	"mlens-core/lens"
)

const (
	newtonMaxIter = 40
	newtonTol     = 1e-13
)

// solveNewton iterates the lens equation from a set of seeds: the hint
// positions, one point near the source, and points around every lens. The
// result is accepted only if it satisfies the image-count theorem.
func solveNewton(cfg lens.Config, zeta complex128, hint []complex128) (Solution, error) {
	seeds := newtonSeeds(cfg, zeta, hint)
	var cands []candidate
	for _, s := range seeds {
		c, ok := newtonConverge(cfg, zeta, s)
		if ok {
			cands = append(cands, c)
		}
	}
	cands = dedupe(cands)
	n := len(cands)
	admissible := false
	for _, k := range allowedCounts(cfg.N()) {
		if k == n {
			admissible = true
		}
	}
	charge := 0
	for _, c := range cands {
		charge += parityOf(c.det)
	}
	if !admissible || charge != 1-cfg.N() {
		return Solution{}, fmt.Errorf("solveNewton: %d images, charge %d: %w", n, charge, ErrImageCount)
	}
	ims := toImages(cands)
	roots := make([]complex128, len(ims))
	for i, im := range ims {
		roots[i] = im.Pos
	}
	return Solution{Images: ims, Roots: roots}, nil
}

func newtonSeeds(cfg lens.Config, zeta complex128, hint []complex128) []complex128 {
	seeds := append([]complex128(nil), hint...)
	seeds = append(seeds, zeta+cfg.Deflection(zeta))
	for i := 0; i < cfg.N(); i++ {
		l := cfg.Lens(i)
		d := l.Pos - zeta
		if d != 0 {
			// image trapped close to the lens: z̄ − z̄ᵢ ≈ mᵢ/(zᵢ − ζ)
			seeds = append(seeds, l.Pos+complex(l.M, 0)/cmplx.Conj(d))
		}
		r := math.Sqrt(l.M)
		for k := 0; k < 4; k++ {
			seeds = append(seeds, l.Pos+cmplx.Rect(r, math.Pi/4+float64(k)*math.Pi/2))
		}
	}
	return seeds
}

// newtonConverge runs damped non-holomorphic Newton from z0.
func newtonConverge(cfg lens.Config, zeta, z0 complex128) (candidate, bool) {
	z := z0
	f := cfg.Map(z) - zeta
	res := cmplx.Abs(f)
	scale := 1 + cmplx.Abs(zeta)
	for it := 0; it < newtonMaxIter; it++ {
		if res <= newtonTol*scale {
			return candidate{z: z, res: res, det: cfg.Jacobian(z)}, true
		}
		g := cfg.Shear(z)
		den := 1 - real(g)*real(g) - imag(g)*imag(g)
		if den == 0 || math.IsNaN(den) {
			return candidate{}, false
		}
		w := (-f + g*cmplx.Conj(f)) / complex(den, 0)
		// halve the step until the residual drops
		accepted := false
		for h := 0; h < 20; h++ {
			zn := z + w
			fn := cfg.Map(zn) - zeta
			if rn := cmplx.Abs(fn); rn < res {
				z, f, res = zn, fn, rn
				accepted = true
				break
			}
			w /= 2
		}
		if !accepted {
			break
		}
	}
	if res <= 1e3*newtonTol*scale {
		return candidate{z: z, res: res, det: cfg.Jacobian(z)}, true
	}
	return candidate{}, false
}
