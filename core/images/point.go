package images

import (
	"math"

	"mlens-core/lens"
)

// PointMag returns the point-source magnification Σ 1/|det J| at zeta.
func PointMag(cfg lens.Config, zeta complex128, m Method) (float64, error) {
	sol, err := Solve(cfg, zeta, m, nil)
	if err != nil {
		return math.NaN(), err
	}
	return TotalMag(sol.Images), nil
}

// TotalMag sums the magnifications of ims.
func TotalMag(ims []Image) float64 {
	a := 0.0
	for _, im := range ims {
		a += im.Mag()
	}
	return a
}

// Centroid is the magnification-weighted mean image position, together with
// the total magnification. It is NaN when the total is zero.
func Centroid(ims []Image) (complex128, float64) {
	var c complex128
	a := 0.0
	for _, im := range ims {
		mu := im.Mag()
		c += im.Pos * complex(mu, 0)
		a += mu
	}
	if a == 0 || math.IsInf(a, 0) {
		return complex(math.NaN(), math.NaN()), a
	}
	return c / complex(a, 0), a
}
