// Package caustic traces critical curves and caustics of point-mass lenses by
// continuing the roots of the critical-curve polynomial around the unit circle.
package caustic

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"mlens-core/cpoly"
	"mlens-core/lens"
)

// ErrTrace reports a continuation that produced non-finite points.
var ErrTrace = errors.New("caustic: root continuation failed")

const defaultPoints = 256

// Options controls the sampling of the phase φ of the critical-curve
// equation. Points is the number of steps in [0, 2π) (default 256).
type Options struct {
	Points int
}

func (o Options) points() int {
	if o.Points < 8 {
		return defaultPoints
	}
	return o.Points
}

// Curve is a closed polyline; the last point repeats the first.
type Curve []complex128

// XY splits the curve into coordinate sequences of equal length.
func (c Curve) XY() (xs, ys []float64) {
	xs = make([]float64, len(c))
	ys = make([]float64, len(c))
	for i, z := range c {
		xs[i], ys[i] = real(z), imag(z)
	}
	return xs, ys
}

// Set holds matching critical curves and caustics: Caustics[i] is the lens
// map of CriticalCurves[i].
type Set struct {
	CriticalCurves []Curve
	Caustics       []Curve
}

// critPoly returns Σ mᵢ Π_{k≠i}(z−z_k)² − e^{iφ} Π(z−z_k)², whose roots are
// the critical points where the shear has phase −φ.
func critPoly(cfg lens.Config, phi float64) cpoly.Poly {
	n := cfg.N()
	sq := make([]cpoly.Poly, n)
	for i := 0; i < n; i++ {
		zi := cfg.Lens(i).Pos
		sq[i] = cpoly.Linear(-zi, 1).MulLinear(zi)
	}
	all := cpoly.Const(1)
	for _, p := range sq {
		all = all.Mul(p)
	}
	sum := cpoly.Poly{}
	for i := 0; i < n; i++ {
		term := cpoly.Const(complex(cfg.Lens(i).M, 0))
		for k, p := range sq {
			if k != i {
				term = term.Mul(p)
			}
		}
		sum = sum.Add(term)
	}
	return sum.Sub(all.Scale(cmplx.Rect(1, phi)))
}

type pairDist struct {
	d    float64
	i, j int
}

// match pairs every element of prev with a distinct element of next,
// greedily by increasing distance, and returns the index into next for each
// element of prev. The result is a permutation when the lengths agree.
func match(prev, next []complex128) []int {
	ps := make([]pairDist, 0, len(prev)*len(next))
	for i, p := range prev {
		for j, q := range next {
			ps = append(ps, pairDist{cmplx.Abs(q - p), i, j})
		}
	}
	sort.Slice(ps, func(a, b int) bool {
		if ps[a].d != ps[b].d {
			return ps[a].d < ps[b].d
		}
		if ps[a].i != ps[b].i {
			return ps[a].i < ps[b].i
		}
		return ps[a].j < ps[b].j
	})
	idx := make([]int, len(prev))
	usedI := make([]bool, len(prev))
	usedJ := make([]bool, len(next))
	for _, p := range ps {
		if usedI[p.i] || usedJ[p.j] {
			continue
		}
		usedI[p.i], usedJ[p.j] = true, true
		idx[p.i] = p.j
	}
	return idx
}

// follow reorders next so that next[i] is the root matched to prev[i].
func follow(prev, next []complex128) []complex128 {
	out := make([]complex128, len(prev))
	for i, j := range match(prev, next) {
		out[i] = next[j]
	}
	return out
}

// cycles splits a permutation into its cycles, each listed from its
// smallest index.
func cycles(perm []int) [][]int {
	var out [][]int
	seen := make([]bool, len(perm))
	for j := range perm {
		if seen[j] {
			continue
		}
		var c []int
		for k := j; !seen[k]; k = perm[k] {
			seen[k] = true
			c = append(c, k)
		}
		out = append(out, c)
	}
	return out
}

func finite(zs []complex128) bool {
	for _, z := range zs {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			return false
		}
	}
	return true
}

// Multi traces the critical curves and caustics of an arbitrary lens set.
// Each root of the critical-curve polynomial is continued through a full
// turn of φ; the permutation between the roots at φ = 0 and φ = 2π splits the
// trajectories into disjoint closed curves, one per cycle.
func Multi(cfg lens.Config, opt Options) (Set, error) {
	if cfg.N() == 0 {
		return Set{}, lens.ErrEmpty
	}
	np := opt.points()
	start, err := cpoly.Roots(critPoly(cfg, 0), nil)
	if err != nil && !errors.Is(err, cpoly.ErrNoConvergence) {
		return Set{}, fmt.Errorf("caustic.Multi: %w", err)
	}
	if !finite(start) {
		return Set{}, fmt.Errorf("caustic.Multi: φ=0: %w", ErrTrace)
	}
	nr := len(start)
	traj := make([][]complex128, nr)
	for j := range traj {
		traj[j] = make([]complex128, 0, np)
		traj[j] = append(traj[j], start[j])
	}
	cur := start
	for k := 1; k <= np; k++ {
		phi := 2 * math.Pi * float64(k) / float64(np)
		next, err := cpoly.Roots(critPoly(cfg, phi), cur)
		if err != nil && !errors.Is(err, cpoly.ErrNoConvergence) {
			return Set{}, fmt.Errorf("caustic.Multi: φ=%.6f: %w", phi, err)
		}
		if len(next) != nr || !finite(next) {
			return Set{}, fmt.Errorf("caustic.Multi: φ=%.6f: %w", phi, ErrTrace)
		}
		cur = follow(cur, next)
		if k < np {
			for j := range traj {
				traj[j] = append(traj[j], cur[j])
			}
		}
	}

	// trajectory j ends where trajectory perm[j] started
	perm := match(cur, start)

	var set Set
	for _, cyc := range cycles(perm) {
		var crit Curve
		for _, k := range cyc {
			crit = append(crit, traj[k]...)
		}
		crit = append(crit, crit[0])
		caus := make(Curve, len(crit))
		for i, z := range crit {
			caus[i] = cfg.Map(z)
		}
		set.CriticalCurves = append(set.CriticalCurves, crit)
		set.Caustics = append(set.Caustics, caus)
	}
	return set, nil
}

// Binary traces the curves of a binary lens in the centre-of-mass frame.
func Binary(s, q float64, opt Options) (Set, error) {
	cfg, err := lens.Binary(s, q)
	if err != nil {
		return Set{}, fmt.Errorf("caustic.Binary: %w", err)
	}
	return Multi(cfg, opt)
}

// Caustics returns the caustics of a binary lens.
func Caustics(s, q float64, opt Options) ([]Curve, error) {
	set, err := Binary(s, q, opt)
	return set.Caustics, err
}

// CriticalCurves returns the critical curves of a binary lens.
func CriticalCurves(s, q float64, opt Options) ([]Curve, error) {
	set, err := Binary(s, q, opt)
	return set.CriticalCurves, err
}
