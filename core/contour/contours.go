package contour

import (
	"fmt"

	"mlens-core/lens"
)

// Contour is one image of the source boundary. Points run in the direction
// that makes the enclosed signed area positive for positive-parity stretches.
type Contour struct {
	Points []complex128
	Parity int  // parity of the first point
	Closed bool // false when the linking broke and the chain was left open
}

// XY splits the contour into coordinate sequences of equal length.
func (c Contour) XY() (xs, ys []float64) {
	xs = make([]float64, len(c.Points))
	ys = make([]float64, len(c.Points))
	for i, z := range c.Points {
		xs[i], ys[i] = real(z), imag(z)
	}
	return xs, ys
}

type vertex struct{ s, i int }

// Contours refines the boundary of a uniform source to the accuracy in opt
// and returns the closed image contours. Positive images are followed
// forward along the boundary and negative images backward, so a caustic
// U-turn joins them into one curve.
func Contours(cfg lens.Config, src lens.Source, opt Options) ([]Contour, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if cfg.N() == 0 {
		return nil, lens.ErrEmpty
	}
	if src.Point() {
		return nil, fmt.Errorf("contour.Contours: point source has no contours: %w", lens.ErrSource)
	}
	opt = opt.withDefaults()
	d := newDisc(cfg, src.Pos, src.Radius, opt)
	d.refine()
	return trace(d.intervals()), nil
}

// trace follows the image graph of a closed partition. Interval k joins
// sample k to sample k+1 (mod n).
func trace(ivs []*interval) []Contour {
	n := len(ivs)
	if n == 0 {
		return nil
	}
	fwd := make([]map[int]int, n)
	bwd := make([]map[int]int, n)
	killed := make([]map[int]int, n)
	created := make([]map[int]int, n)
	for k, iv := range ivs {
		fwd[k], bwd[k] = map[int]int{}, map[int]int{}
		killed[k], created[k] = map[int]int{}, map[int]int{}
		for _, m := range iv.lk.match {
			fwd[k][m[0]] = m[1]
			bwd[k][m[1]] = m[0]
		}
		for _, pm := range iv.lk.killed {
			killed[k][pm[0]] = pm[1]
		}
		for _, pm := range iv.lk.created {
			created[k][pm[1]] = pm[0]
		}
	}

	next := func(v vertex) (vertex, bool) {
		nd := ivs[v.s].a.nodes[v.i]
		if nd.parity > 0 {
			if j, ok := fwd[v.s][v.i]; ok {
				return vertex{(v.s + 1) % n, j}, true
			}
			if m, ok := killed[v.s][v.i]; ok {
				return vertex{v.s, m}, true
			}
			return vertex{}, false
		}
		prev := (v.s - 1 + n) % n
		if i, ok := bwd[prev][v.i]; ok {
			return vertex{prev, i}, true
		}
		if p, ok := created[prev][v.i]; ok {
			return vertex{v.s, p}, true
		}
		return vertex{}, false
	}

	seen := make([][]bool, n)
	for k, iv := range ivs {
		seen[k] = make([]bool, len(iv.a.nodes))
	}
	var out []Contour
	for s := 0; s < n; s++ {
		for i := range ivs[s].a.nodes {
			if seen[s][i] {
				continue
			}
			start := vertex{s, i}
			c := Contour{Parity: ivs[s].a.nodes[i].parity}
			v := start
			for {
				seen[v.s][v.i] = true
				c.Points = append(c.Points, ivs[v.s].a.nodes[v.i].z)
				w, ok := next(v)
				if !ok {
					break
				}
				if w == start {
					c.Closed = true
					break
				}
				if w.i >= len(seen[w.s]) || seen[w.s][w.i] {
					break
				}
				v = w
			}
			if c.Closed {
				c.Points = append(c.Points, c.Points[0])
			}
			out = append(out, c)
		}
	}
	return out
}

// ImageContours returns the image contours of a uniform source of radius rho
// at (y1, y2) behind a binary lens, with the default accuracy.
func ImageContours(s, q, y1, y2, rho float64) ([]Contour, error) {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return nil, err
	}
	return Contours(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, Options{})
}
