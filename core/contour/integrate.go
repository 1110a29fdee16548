// core/contour/integrate.go
package contour

import (
	"container/heap"
	"math"
	"math/cmplx"
	"sort"

	"mlens-core/images"
	"mlens-core/lens"
)

// capWeight scales the parabolic cap of a caustic U-turn into the error
// estimate of its interval.
const capWeight = 0.5

type interval struct {
	a, b   *sample
	width  float64
	depth  int
	lk     linkage
	area   float64    // signed image area swept by this interval
	moment complex128 // first moment ∫∫ z dA of the same region
	src    float64    // source area swept
	caps   float64    // |area| of the U-turn caps
	err    float64
	index  int // heap position
}

func cross(p, q complex128) float64 { return real(p)*imag(q) - imag(p)*real(q) }

// edge returns the Green's-theorem area and first moment of the straight
// edge p → q. The cross product is taken against q − p so that short edges
// far from the origin keep their precision.
func edge(p, q complex128) (float64, complex128) {
	c := cross(p, q-p)
	return c / 2, (p + q) * complex(c/6, 0)
}

// turnCap is the area between the chord z1 → z2 and the parabolic arc that
// leaves z1 along t1 and reaches z2 along t2: two thirds of the tangent
// triangle.
func turnCap(z1, t1, z2, t2 complex128) float64 {
	den := cross(t1, t2)
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}
	u := cross(z2-z1, t2) / den
	apex := z1 + complex(u, 0)*t1
	c := cross(apex-z1, z2-z1) / 3
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// measure fills the contributions of iv from its end samples.
func measure(iv *interval) {
	a, b, h := iv.a, iv.b, iv.width
	iv.lk = link(a, b)
	iv.area, iv.moment, iv.caps = 0, 0, 0
	for _, m := range iv.lk.match {
		na, nb := a.nodes[m[0]], b.nodes[m[1]]
		ar, mo := edge(na.z, nb.z)
		ar += h * h * cross(na.tan, nb.tan) / 12
		p := float64(na.parity)
		iv.area += p * ar
		iv.moment += complex(p, 0) * mo
	}
	for _, pm := range iv.lk.created {
		zp, zm := b.nodes[pm[0]], b.nodes[pm[1]]
		ar, mo := edge(zm.z, zp.z)
		c := turnCap(zm.z, zm.tan, zp.z, zp.tan)
		iv.area += ar + c
		iv.moment += mo
		iv.caps += math.Abs(c)
	}
	for _, pm := range iv.lk.killed {
		zp, zm := a.nodes[pm[0]], a.nodes[pm[1]]
		ar, mo := edge(zp.z, zm.z)
		c := turnCap(zp.z, zp.tan, zm.z, zm.tan)
		iv.area += ar + c
		iv.moment += mo
		iv.caps += math.Abs(c)
	}
	sa, _ := edge(a.src, b.src)
	iv.src = sa + h*h*cross(a.stan, b.stan)/12
}

// intervalHeap pops the interval with the largest error first; ties go to
// the smaller starting angle.
type intervalHeap []*interval

func (q intervalHeap) Len() int { return len(q) }
func (q intervalHeap) Less(i, j int) bool {
	if q[i].err != q[j].err {
		return q[i].err > q[j].err
	}
	return q[i].a.theta < q[j].a.theta
}
func (q intervalHeap) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *intervalHeap) Push(x any) {
	iv := x.(*interval)
	iv.index = len(*q)
	*q = append(*q, iv)
}
func (q *intervalHeap) Pop() any {
	old := *q
	n := len(old)
	iv := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return iv
}

// disc holds the refined boundary of one uniform source disc.
type disc struct {
	bd        *boundary
	opt       Options
	live      intervalHeap
	frozen    []*interval
	area, src float64
	errSum    float64
}

func (d *disc) split(iv *interval) (*interval, *interval) {
	half := iv.width / 2
	m := d.bd.at(iv.a.theta+half, iv.a.roots)
	c1 := &interval{a: iv.a, b: m, width: half, depth: iv.depth + 1}
	c2 := &interval{a: m, b: iv.b, width: half, depth: iv.depth + 1}
	measure(c1)
	measure(c2)
	diff := math.Abs(c1.area + c2.area - iv.area)
	for _, c := range [2]*interval{c1, c2} {
		c.err = math.Max(diff/2, capWeight*c.caps)
		if c.lk.bad {
			c.err = math.Max(c.err, math.Abs(c.area)+c.caps)
		}
	}
	return c1, c2
}

func (d *disc) add(iv *interval) {
	d.area += iv.area
	d.src += iv.src
	d.errSum += iv.err
	heap.Push(&d.live, iv)
}

func (d *disc) remove(iv *interval) {
	d.area -= iv.area
	d.src -= iv.src
	d.errSum -= iv.err
}

// refine runs the adaptive bisection and reports whether the goal was met.
func (d *disc) refine() bool {
	n0 := d.opt.MinSamples
	h := 2 * math.Pi / float64(n0)
	first := make([]*sample, n0)
	var hint []complex128
	for k := range first {
		first[k] = d.bd.at(h*float64(k), hint)
		hint = first[k].roots
	}
	for k := 0; k < n0; k++ {
		parent := &interval{a: first[k], b: first[(k+1)%n0], width: h}
		measure(parent)
		c1, c2 := d.split(parent)
		d.add(c1)
		d.add(c2)
	}
	for {
		if d.src != 0 && d.errSum/d.src <= d.opt.goal(d.area/d.src) {
			return true
		}
		if d.live.Len() == 0 || d.bd.count >= d.opt.MaxSamples {
			return false
		}
		iv := heap.Pop(&d.live).(*interval)
		if iv.depth >= d.opt.MaxDepth {
			d.frozen = append(d.frozen, iv)
			continue
		}
		d.remove(iv)
		c1, c2 := d.split(iv)
		d.add(c1)
		d.add(c2)
	}
}

// intervals returns the final partition ordered by angle.
func (d *disc) intervals() []*interval {
	out := make([]*interval, 0, len(d.live)+len(d.frozen))
	out = append(out, d.live...)
	out = append(out, d.frozen...)
	sort.Slice(out, func(i, j int) bool { return out[i].a.theta < out[j].a.theta })
	return out
}

// totals recomputes the sums in angle order so the result does not depend on
// the refinement history's rounding.
func (d *disc) totals() (area, src, errSum float64, moment complex128) {
	for _, iv := range d.intervals() {
		area += iv.area
		src += iv.src
		errSum += iv.err
		moment += iv.moment
	}
	return
}

func newDisc(cfg lens.Config, centre complex128, rho float64, opt Options) *disc {
	return &disc{
		bd:  &boundary{cfg: cfg, centre: centre, rho: rho, method: opt.Method},
		opt: opt,
	}
}

// Uniform returns the magnification of a uniformly bright source disc by
// adaptive contour integration of its images. A point source (Radius 0) is
// handled exactly. The source's LD coefficient is ignored.
func Uniform(cfg lens.Config, src lens.Source, opt Options) (Result, error) {
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
	d := newDisc(cfg, src.Pos, src.Radius, opt)
	met := d.refine()
	return d.result(met), nil
}

func (d *disc) result(met bool) Result {
	area, srcArea, errSum, moment := d.totals()
	r := Result{PrecisionMet: met, Samples: d.bd.count}
	if srcArea == 0 || area == 0 {
		r.Mag = math.NaN()
		r.Centroid = complex(math.NaN(), math.NaN())
		r.PrecisionMet = false
		return r
	}
	r.Mag = area / srcArea
	r.Err = errSum / srcArea
	r.Centroid = moment / complex(area, 0)
	for _, iv := range d.intervals() {
		if iv.a.failed {
			r.Failures++
		}
		if iv.a.fellBack {
			r.Fallbacks++
		}
	}
	return r
}

// pointResult evaluates a point source. Numerical failures come back as NaN
// together with the error.
func pointResult(cfg lens.Config, zeta complex128, opt Options) (Result, error) {
	sol, err := images.Solve(cfg, zeta, opt.Method, nil)
	r := Result{Samples: 1, PrecisionMet: err == nil, Fallbacks: b2i(sol.FellBack)}
	if err != nil {
		r.Failures = 1
		r.Mag = math.NaN()
		r.Centroid = complex(math.NaN(), math.NaN())
		return r, err
	}
	c, a := images.Centroid(sol.Images)
	r.Mag, r.Centroid = a, c
	if math.IsInf(a, 0) || cmplx.IsNaN(c) {
		r.PrecisionMet = false
	}
	return r, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
