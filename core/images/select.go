package images

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"mlens-core/lens"
)

const (
	lensNewtonSteps = 3
	tinyResidual    = 1e-300

	// residualBound is the loose acceptance bound on |ζ(z) − ζ| for a true image.
	residualBound = 1e-5

	// dedupeTol is the relative distance under which pooled candidates merge.
	dedupeTol = 1e-8
)

type candidate struct {
	z   complex128
	res float64
	det float64
}

// refine polishes z with non-holomorphic Newton steps on the lens equation,
// w = (−f + g f̄)/(1 − |g|²), keeping a step only if it lowers the residual.
func refine(cfg lens.Config, zeta, z complex128, steps int) candidate {
	f := cfg.Map(z) - zeta
	res := cmplx.Abs(f)
	for i := 0; i < steps && res > 0; i++ {
		g := cfg.Shear(z)
		den := 1 - real(g)*real(g) - imag(g)*imag(g)
		if den == 0 || math.IsNaN(den) {
			break
		}
		w := (-f + g*cmplx.Conj(f)) / complex(den, 0)
		zn := z + w
		fn := cfg.Map(zn) - zeta
		rn := cmplx.Abs(fn)
		if !(rn < res) {
			break
		}
		z, f, res = zn, fn, rn
	}
	if math.IsNaN(res) {
		res = math.Inf(1)
	}
	return candidate{z: z, res: res, det: cfg.Jacobian(z)}
}

// dedupe keeps the lowest-residual representative of candidates closer than
// dedupeTol (relative) to each other.
func dedupe(cs []candidate) []candidate {
	sortByResidual(cs)
	out := cs[:0:0]
	for _, c := range cs {
		dup := false
		for _, k := range out {
			if cmplx.Abs(c.z-k.z) <= dedupeTol*(1+cmplx.Abs(k.z)) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func sortByResidual(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].res < cs[j].res })
}

// allowedCounts lists the image counts the lens theorem admits for n lenses:
// N+1 ≤ n ≤ 5N−5 with the parity of N+1 (exactly 2 for one lens).
func allowedCounts(nl int) []int {
	if nl == 1 {
		return []int{2}
	}
	var out []int
	for n := nl + 1; n <= 5*nl-5; n += 2 {
		out = append(out, n)
	}
	return out
}

func parityOf(det float64) int {
	if det < 0 {
		return -1
	}
	return 1
}

// selectImages picks, among the admissible counts, the one with the largest
// gap in log residual between the last accepted and the first rejected
// candidate, subject to the charge condition n₊ − n₋ = 1 − N.
func selectImages(cfg lens.Config, cs []candidate) ([]Image, error) {
	sortByResidual(cs)
	nl := cfg.N()
	bestN, bestGap := -1, math.Inf(-1)
	fallbackN := -1
	for _, n := range allowedCounts(nl) {
		if n > len(cs) {
			break
		}
		charge := 0
		for _, c := range cs[:n] {
			charge += parityOf(c.det)
		}
		if charge != 1-nl {
			continue
		}
		if fallbackN < 0 {
			fallbackN = n
		}
		if cs[n-1].res > residualBound {
			continue
		}
		gap := math.Inf(1)
		if n < len(cs) {
			gap = math.Log(cs[n].res+tinyResidual) - math.Log(cs[n-1].res+tinyResidual)
		}
		if gap > bestGap {
			bestN, bestGap = n, gap
		}
	}
	if bestN < 0 {
		n := fallbackN
		if n < 0 {
			n = nl + 1
			if n > len(cs) {
				n = len(cs)
			}
		}
		return toImages(cs[:n]), fmt.Errorf("selectImages: %d candidates, smallest residuals %s: %w",
			len(cs), residualSummary(cs), ErrImageCount)
	}
	return toImages(cs[:bestN]), nil
}

func toImages(cs []candidate) []Image {
	out := make([]Image, len(cs))
	for i, c := range cs {
		out[i] = Image{Pos: c.z, Parity: parityOf(c.det), Jacobian: c.det}
	}
	return out
}

func residualSummary(cs []candidate) string {
	n := len(cs)
	if n > 3 {
		n = 3
	}
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%.2g", cs[i].res)
	}
	return "[" + s + "]"
}
