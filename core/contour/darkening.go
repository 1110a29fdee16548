package contour

import (
	"math"

	"mlens-core/lens"
)

// linearProfile is I(x) = 1 − a(1 − √(1 − x²)) with x = r/ρ.
type linearProfile struct{ a float64 }

func (p linearProfile) brightness(x float64) float64 {
	return 1 - p.a*(1-math.Sqrt(math.Max(0, 1-x*x)))
}

// flux is ∫₀ˣ I(x') 2x' dx', the flux inside radius x divided by πρ².
func (p linearProfile) flux(x float64) float64 {
	s := math.Max(0, 1-x*x)
	return x*x*(1-p.a) + 2*p.a/3*(1-s*math.Sqrt(s))
}

// ring is the uniform-disc result at radius x·ρ.
type ring struct {
	x   float64
	m   float64    // x²·A_U: image area over πρ²
	mz  complex128 // x²·A_U·centroid
	err float64    // x²·Err_U
}

type annulus struct {
	in, out int // ring indices
	err     float64
}

// Dark integrates a limb-darkened source as a sum of annuli. Each ring radius
// is a uniform-disc integration; the annulus flux is its mean brightness times
// the increment of the magnified area. Annuli are split at their area midpoint
// where brightness and magnification vary together the most.
func Dark(cfg lens.Config, src lens.Source, opt Options) (Result, error) {
	if err := src.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.N() == 0 {
		return Result{}, lens.ErrEmpty
	}
	if src.Point() {
		return pointResult(cfg, src.Pos, opt)
	}
	if src.LD == 0 {
		return Uniform(cfg, src, opt)
	}
	return darkBatch(cfg, src, []float64{src.LD}, opt.withDefaults())[0], nil
}

// darkBatch integrates one source for several linear coefficients over a
// shared set of rings. Each step splits the worst annulus of the coefficient
// furthest above its error goal, so the uniform-disc integrations are paid
// once for the whole batch.
func darkBatch(cfg lens.Config, src lens.Source, a1s []float64, opt Options) []Result {
	profs := make([]linearProfile, len(a1s))
	totals := make([]float64, len(a1s))
	for j, a := range a1s {
		profs[j] = linearProfile{a: a}
		totals[j] = profs[j].flux(1)
	}

	shared := Result{PrecisionMet: true}
	rings := []ring{{x: 0}}
	addRing := func(x float64) int {
		d := newDisc(cfg, src.Pos, x*src.Radius, opt)
		met := d.refine()
		u := d.result(met)
		shared.absorb(u)
		rings = append(rings, ring{x: x, m: x * x * u.Mag, mz: complex(x*x*u.Mag, 0) * u.Centroid, err: x * x * u.Err})
		return len(rings) - 1
	}
	mid := addRing(math.Sqrt(0.5))
	outer := addRing(1)
	anns := []annulus{{in: 0, out: mid}, {in: mid, out: outer}}

	out := make([]Result, len(a1s))
	for {
		pick, split, ratio := -1, 0, 1.0
		for j, p := range profs {
			a, z, errSum, worst := darkSum(p, rings, anns, totals[j])
			r := shared
			r.Annuli = len(anns)
			if math.IsNaN(a) {
				r.Mag, r.Centroid, r.PrecisionMet = a, complex(math.NaN(), math.NaN()), false
				out[j] = r
				continue
			}
			r.Mag, r.Centroid, r.Err = a, z, errSum
			if errSum > opt.goal(a) {
				r.PrecisionMet = false
			}
			out[j] = r
			if q := errSum / opt.goal(a); q > ratio {
				pick, split, ratio = j, worst, q
			}
		}
		if pick < 0 || len(anns) >= opt.MaxAnnuli {
			return out
		}
		w := anns[split]
		xi, xo := rings[w.in].x, rings[w.out].x
		k := addRing(math.Sqrt((xi*xi + xo*xo) / 2))
		anns = append(anns[:split], append([]annulus{{in: w.in, out: k}, {in: k, out: w.out}}, anns[split+1:]...)...)
	}
}

// darkSum evaluates Φ/F and its error over the current annuli (ordered from
// the centre outwards) and returns the index of the annulus to split next.
func darkSum(p linearProfile, rings []ring, anns []annulus, total float64) (float64, complex128, float64, int) {
	var (
		num    float64
		numZ   complex128
		errSum float64
	)
	means := make([]float64, len(anns))
	for i, an := range anns {
		ri, ro := rings[an.in], rings[an.out]
		dx2 := ro.x*ro.x - ri.x*ri.x
		means[i] = (ro.m - ri.m) / dx2
	}
	worst, worstErr := 0, -1.0
	for i, an := range anns {
		ri, ro := rings[an.in], rings[an.out]
		dx2 := ro.x*ro.x - ri.x*ri.x
		w := (p.flux(ro.x) - p.flux(ri.x)) / dx2
		num += w * (ro.m - ri.m)
		numZ += complex(w, 0) * (ro.mz - ri.mz)

		spread := 0.0
		if i > 0 {
			spread = math.Max(spread, math.Abs(means[i]-means[i-1]))
		}
		if i+1 < len(anns) {
			spread = math.Max(spread, math.Abs(means[i]-means[i+1]))
		}
		dI := math.Abs(p.brightness(ri.x) - p.brightness(ro.x))
		e := 0.5*dI*spread*dx2/total + w*(ri.err+ro.err)/total
		anns[i].err = e
		errSum += e
		if e > worstErr {
			worst, worstErr = i, e
		}
	}
	if num == 0 {
		return math.NaN(), 0, errSum, worst
	}
	return num / total, numZ / complex(num, 0), errSum, worst
}
