// Package espl computes magnifications of a single point lens: the exact
// point-source value and finite sources, either integrated directly or read
// from a precomputed table.
package espl

import (
	"math"

	"mlens-core/contour"
	"mlens-core/lens"
)

// PSPLMag is the point-source point-lens magnification (u² + 2)/(u√(u² + 4)).
// It is +Inf at u = 0.
func PSPLMag(u float64) float64 {
	u = math.Abs(u)
	if u == 0 {
		return math.Inf(1)
	}
	u2 := u * u
	return (u2 + 2) / (u * math.Sqrt(u2+4))
}

func source(u, rho, a1 float64) lens.Source {
	return lens.Source{Pos: complex(math.Abs(u), 0), Radius: rho, LD: a1}
}

// Mag is the magnification of a uniform source of radius rho at distance u.
func Mag(u, rho float64, opt contour.Options) (contour.Result, error) {
	return contour.Uniform(lens.Single(), source(u, rho, 0), opt)
}

// MagDark is Mag for a source with linear limb darkening a1.
func MagDark(u, rho, a1 float64, opt contour.Options) (contour.Result, error) {
	return contour.Mag(lens.Single(), source(u, rho, a1), opt)
}

// Mag2 uses the hexadecapole approximation when the source is far from the
// lens and full integration otherwise.
func Mag2(u, rho float64, opt contour.Options) (contour.Result, error) {
	return contour.Auto(lens.Single(), source(u, rho, 0), opt)
}
