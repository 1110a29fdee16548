package contour

import (
	"math"
	"math/cmplx"
	"sort"

	"mlens-core/images"
	"mlens-core/lens"
)

// node is one image of a boundary point.
type node struct {
	z       complex128
	tan     complex128 // dz/dθ along the source boundary
	parity  int
	det     float64
	stretch float64 // largest local |dz|/|dζ|
}

// sample is the image set of the source boundary point at angle theta.
type sample struct {
	theta    float64
	src      complex128
	stan     complex128 // dζ/dθ
	nodes    []node
	roots    []complex128
	failed   bool
	fellBack bool
}

type boundary struct {
	cfg    lens.Config
	centre complex128
	rho    float64
	method images.Method
	count  int
}

// at solves the lens equation at ζ(θ) = centre + ρe^{iθ}.
func (b *boundary) at(theta float64, hint []complex128) *sample {
	b.count++
	e := cmplx.Rect(1, theta)
	s := &sample{
		theta: theta,
		src:   b.centre + complex(b.rho, 0)*e,
		stan:  complex(0, b.rho) * e,
	}
	sol, err := images.Solve(b.cfg, s.src, b.method, hint)
	s.failed = err != nil
	s.fellBack = sol.FellBack
	s.roots = sol.Roots
	s.nodes = make([]node, len(sol.Images))
	for i, im := range sol.Images {
		g := b.cfg.Shear(im.Pos)
		n := node{z: im.Pos, parity: im.Parity, det: im.Jacobian}
		if im.Jacobian != 0 {
			// dz = (dζ − g dζ̄)/(1 − |g|²)
			n.tan = (s.stan - g*cmplx.Conj(s.stan)) / complex(im.Jacobian, 0)
		}
		if d := math.Abs(1 - cmplx.Abs(g)); d > 0 {
			n.stretch = 1 / d
		} else {
			n.stretch = math.Inf(1)
		}
		s.nodes[i] = n
	}
	return s
}

// linkage connects the images of two neighbouring samples.
type linkage struct {
	match   [][2]int // (index at a, index at b), same parity
	created [][2]int // (plus, minus) at b, pair born inside the interval
	killed  [][2]int // (plus, minus) at a, pair annihilated inside the interval
	bad     bool     // inconsistent linking; the interval must be refined
}

type pairDist struct {
	d    float64
	i, j int
}

func sortPairs(ps []pairDist) {
	sort.Slice(ps, func(x, y int) bool {
		if ps[x].d != ps[y].d {
			return ps[x].d < ps[y].d
		}
		if ps[x].i != ps[y].i {
			return ps[x].i < ps[y].i
		}
		return ps[x].j < ps[y].j
	})
}

// link matches images of a and b by nearest neighbour within each parity,
// greedily in order of increasing distance. Unmatched images on the side
// holding more images are paired + with − as a caustic U-turn.
func link(a, b *sample) linkage {
	lk := linkage{bad: a.failed || b.failed}
	usedA := make([]bool, len(a.nodes))
	usedB := make([]bool, len(b.nodes))
	for _, par := range [2]int{1, -1} {
		var ps []pairDist
		for i, na := range a.nodes {
			if na.parity != par {
				continue
			}
			for j, nb := range b.nodes {
				if nb.parity == par {
					ps = append(ps, pairDist{cmplx.Abs(nb.z - na.z), i, j})
				}
			}
		}
		sortPairs(ps)
		for _, p := range ps {
			if usedA[p.i] || usedB[p.j] {
				continue
			}
			usedA[p.i], usedB[p.j] = true, true
			lk.match = append(lk.match, [2]int{p.i, p.j})
		}
	}

	leftA := unused(usedA)
	leftB := unused(usedB)
	if len(leftA) > 0 && len(leftB) > 0 {
		lk.bad = true
	}
	var ok bool
	lk.killed, ok = pairUp(a, leftA)
	lk.bad = lk.bad || !ok
	lk.created, ok = pairUp(b, leftB)
	lk.bad = lk.bad || !ok

	step := cmplx.Abs(b.src - a.src)
	for _, m := range lk.match {
		na, nb := a.nodes[m[0]], b.nodes[m[1]]
		if cmplx.Abs(nb.z-na.z) > 4*step*math.Max(na.stretch, nb.stretch)+1e-12 {
			lk.bad = true
		}
	}
	return lk
}

func unused(used []bool) []int {
	var out []int
	for i, u := range used {
		if !u {
			out = append(out, i)
		}
	}
	return out
}

// pairUp pairs leftover images of s, plus with minus, nearest first. It
// reports false when the leftovers do not balance.
func pairUp(s *sample, left []int) ([][2]int, bool) {
	if len(left) == 0 {
		return nil, true
	}
	var plus, minus []int
	for _, i := range left {
		if s.nodes[i].parity > 0 {
			plus = append(plus, i)
		} else {
			minus = append(minus, i)
		}
	}
	var ps []pairDist
	for _, p := range plus {
		for _, m := range minus {
			ps = append(ps, pairDist{cmplx.Abs(s.nodes[p].z - s.nodes[m].z), p, m})
		}
	}
	sortPairs(ps)
	usedP := map[int]bool{}
	usedM := map[int]bool{}
	var out [][2]int
	for _, p := range ps {
		if usedP[p.i] || usedM[p.j] {
			continue
		}
		usedP[p.i], usedM[p.j] = true, true
		out = append(out, [2]int{p.i, p.j})
	}
	return out, len(plus) == len(minus)
}
