// Package astrometry turns image centroids into sky positions and merges the
// centroids of several sources.
package astrometry

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"mlens-core/images"
)

// ErrLength reports series of different lengths.
var ErrLength = errors.New("astrometry: series lengths differ")

// Centroid is the magnification-weighted mean image position and the total
// magnification. The position is NaN when the total is zero or infinite.
func Centroid(ims []images.Image) (complex128, float64) {
	return images.Centroid(ims)
}

// Series is one source's magnification and centroid (North, East) per epoch.
type Series struct {
	Mag []float64
	N   []float64
	E   []float64
}

// Len returns the number of epochs, or -1 if the channels disagree.
func (s Series) Len() int {
	if len(s.N) != len(s.Mag) || len(s.E) != len(s.Mag) {
		return -1
	}
	return len(s.Mag)
}

func newSeries(n int) Series {
	return Series{Mag: make([]float64, n), N: make([]float64, n), E: make([]float64, n)}
}

// CombineCentroids merges two sources with flux ratio fr applied to the first:
// (fr·m1·c1 + m2·c2) / (fr·m1 + m2) per epoch. The combined magnification is
// the same flux-weighted mean of m1 and m2. Epochs with a zero denominator
// are NaN.
func CombineCentroids(a, b Series, fr float64) (Series, error) {
	return CombineN([]Series{a, b}, []float64{fr, 1})
}

// CombineN is CombineCentroids for any number of sources and weights.
func CombineN(series []Series, weights []float64) (Series, error) {
	if len(series) != len(weights) {
		return Series{}, fmt.Errorf("astrometry.CombineN: %d series, %d weights: %w", len(series), len(weights), ErrLength)
	}
	if len(series) == 0 {
		return Series{}, nil
	}
	n := series[0].Len()
	for i, s := range series {
		if l := s.Len(); l < 0 || l != n {
			return Series{}, fmt.Errorf("astrometry.CombineN: series %d has length %d, want %d: %w", i, l, n, ErrLength)
		}
	}
	var wsum float64
	for _, w := range weights {
		wsum += w
	}
	out := newSeries(n)
	for k := 0; k < n; k++ {
		var den float64
		var c complex128
		for i, s := range series {
			wm := weights[i] * s.Mag[k]
			den += wm
			c += complex(wm, 0) * complex(s.N[k], s.E[k])
		}
		if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
			out.Mag[k], out.N[k], out.E[k] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		c /= complex(den, 0)
		out.Mag[k] = den / wsum
		out.N[k], out.E[k] = real(c), imag(c)
	}
	return out, nil
}

// Astro holds the astrometric parameters of an event: source proper motion
// (mas/yr), source parallax (mas) and angular Einstein radius (mas).
type Astro struct {
	MuN, MuE float64
	PiS      float64
	ThetaE   float64
}

// SkyFrame maps lens-frame vectors (units of θE) onto (North, East). The lens
// moves relative to the source along e^{iα} in the lens frame and along the
// parallax vector on the sky; without parallax the motion points North.
type SkyFrame struct {
	rot complex128
	T0  float64
	A   Astro
}

// NewSkyFrame builds the frame for a parallax vector (piN, piE), trajectory
// angle alpha and reference time t0.
func NewSkyFrame(piN, piE, alpha, t0 float64, a Astro) SkyFrame {
	dir := complex(1, 0)
	if p := math.Hypot(piN, piE); p > 0 {
		dir = complex(piN/p, piE/p)
	}
	return SkyFrame{rot: dir * cmplx.Rect(1, -alpha), T0: t0, A: a}
}

// Rotate applies the lens-to-sky rotation to a lens-frame vector.
func (f SkyFrame) Rotate(z complex128) complex128 { return f.rot * z }

// Source is the unlensed source position (N + iE, mas) at time t, given the
// observer's parallax offsets (dN, dE) in AU.
func (f SkyFrame) Source(t, dN, dE float64) complex128 {
	dt := (t - f.T0) / 365.25
	return complex(f.A.MuN*dt+f.A.PiS*dN, f.A.MuE*dt+f.A.PiS*dE)
}

// Image is the sky position of the image centroid c for a source at y (both
// lens frame) whose unlensed sky position is src.
func (f SkyFrame) Image(src, c, y complex128) complex128 {
	return src + complex(f.A.ThetaE, 0)*f.rot*(c-y)
}

// Lens is the sky position of the lens-frame origin.
func (f SkyFrame) Lens(src, y complex128) complex128 {
	return src - complex(f.A.ThetaE, 0)*f.rot*y
}
