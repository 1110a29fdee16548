package lens

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var ErrSource = errors.New("lens: invalid source")

// Source is the source disc: centre in Einstein units, radius ρ (0 for a point
// source) and linear limb-darkening coefficient a1, with surface brightness
// I(r) ∝ 1 − a1(1 − √(1 − r²/ρ²)).
type Source struct {
	Pos    complex128
	Radius float64
	LD     float64
}

// Point reports whether the source has no extent.
func (s Source) Point() bool { return s.Radius == 0 }

func (s Source) Validate() error {
	if cmplx.IsNaN(s.Pos) || cmplx.IsInf(s.Pos) {
		return fmt.Errorf("source position %v: %w", s.Pos, ErrSource)
	}
	if s.Radius < 0 || math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("source radius %g: %w", s.Radius, ErrSource)
	}
	if s.LD < 0 || s.LD > 1 || math.IsNaN(s.LD) {
		return fmt.Errorf("limb darkening %g outside [0,1]: %w", s.LD, ErrSource)
	}
	return nil
}
