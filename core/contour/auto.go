package contour

import (
	"math"
	"math/cmplx"

	"mlens-core/images"
	"mlens-core/lens"
)

// hexSafety is the margin applied to the hexadecapole term before the
// approximation is accepted.
const hexSafety = 10

// Auto returns the finite-source magnification using the hexadecapole
// approximation when the source is far enough from any caustic, and the full
// contour integration otherwise. The test uses 13 point-source evaluations:
// the centre plus crosses at ρ/2 and ρ and a diagonal cross at ρ. The
// approximation is accepted when all 13 points see the same number of images
// and the fourth-order term is well below the accuracy goal.
func Auto(cfg lens.Config, src lens.Source, opt Options) (Result, error) {
	if err := src.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.N() == 0 {
		return Result{}, lens.ErrEmpty
	}
	if src.Point() {
		return pointResult(cfg, src.Pos, opt)
	}
	opt = opt.withDefaults()
	if r, ok := hexadecapole(cfg, src, opt); ok {
		return r, nil
	}
	if src.LD > 0 {
		return Dark(cfg, src, opt)
	}
	return Uniform(cfg, src, opt)
}

func hexadecapole(cfg lens.Config, src lens.Source, opt Options) (Result, bool) {
	rho := src.Radius
	var (
		count   = -1
		hint    []complex128
		samples int
		moment  complex128
	)
	eval := func(z complex128) (float64, bool) {
		samples++
		sol, err := images.Solve(cfg, z, opt.Method, hint)
		if err != nil {
			return 0, false
		}
		hint = sol.Roots
		if count < 0 {
			count = len(sol.Images)
		} else if len(sol.Images) != count {
			return 0, false
		}
		c, a := images.Centroid(sol.Images)
		if math.IsInf(a, 0) || math.IsNaN(a) || cmplx.IsNaN(c) {
			return 0, false
		}
		moment = c * complex(a, 0)
		return a, true
	}

	a0, ok := eval(src.Pos)
	if !ok {
		return Result{}, false
	}
	c0 := moment
	avg := func(r, phase float64) (float64, bool) {
		var sum float64
		for k := 0; k < 4; k++ {
			a, ok := eval(src.Pos + cmplx.Rect(r, phase+float64(k)*math.Pi/2))
			if !ok {
				return 0, false
			}
			sum += a
		}
		return sum/4 - a0, true
	}
	halfPlus, ok := avg(rho/2, 0)
	if !ok {
		return Result{}, false
	}
	fullPlus, ok := avg(rho, 0)
	if !ok {
		return Result{}, false
	}
	fullCross, ok := avg(rho, math.Pi/4)
	if !ok {
		return Result{}, false
	}

	a2 := (16*halfPlus - fullPlus) / 3
	a4 := (fullPlus+fullCross)/2 - a2
	gamma := 2 * src.LD / (3 - src.LD)
	mag := a0 + a2*(1-gamma/5)/2 + a4*(1-11*gamma/35)/3
	if hexSafety*math.Abs(a4) > opt.goal(mag) {
		return Result{}, false
	}
	return Result{
		Mag:          mag,
		Centroid:     c0 / complex(a0, 0),
		Err:          math.Abs(a4) / 3,
		PrecisionMet: true,
		Samples:      samples,
		Hexadecapole: true,
	}, true
}
