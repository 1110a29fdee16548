package caustic

import "math"

// Topology classifies binary-lens caustics.
type Topology int

const (
	Close    Topology = iota // one central and two secondary caustics
	Resonant                 // a single six-cusp caustic
	Wide                     // two separate four-cusp caustics
)

func (t Topology) String() string {
	switch t {
	case Close:
		return "close"
	case Resonant:
		return "resonant"
	case Wide:
		return "wide"
	}
	return "unknown"
}

// Curves is the number of disjoint caustics of the class.
func (t Topology) Curves() int {
	switch t {
	case Close:
		return 3
	case Wide:
		return 2
	}
	return 1
}

// Boundaries returns the close/resonant and resonant/wide separations of a
// binary with mass ratio q, in units of the total Einstein radius.
func Boundaries(q float64) (closeSep, wideSep float64) {
	m1 := 1 / (1 + q)
	m2 := q / (1 + q)
	wideSep = math.Pow(math.Cbrt(m1)+math.Cbrt(m2), 1.5)

	// m1·m2 = (1 − d⁴)³ / (27 d⁸), decreasing in d on (0, 1)
	f := func(d float64) float64 {
		d4 := d * d * d * d
		return (1-d4)*(1-d4)*(1-d4) - 27*m1*m2*d4*d4
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, wideSep
}

// TopologyOf classifies a binary of separation s and mass ratio q.
func TopologyOf(s, q float64) Topology {
	c, w := Boundaries(q)
	switch {
	case s < c:
		return Close
	case s > w:
		return Wide
	}
	return Resonant
}
