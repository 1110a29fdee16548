// core/lens/lens.go
package lens

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// MassTol is the tolerance on |Σ m − 1| accepted by New.
const MassTol = 1e-9

var (
	ErrEmpty    = errors.New("lens: configuration needs at least one lens")
	ErrMassSum  = errors.New("lens: lens masses must sum to 1")
	ErrMass     = errors.New("lens: lens masses must be positive and finite")
	ErrGeometry = errors.New("lens: invalid geometry")
)

// Mass is one point lens: position in Einstein-radius units of the total
// mass, and mass fraction.
type Mass struct {
	Pos complex128
	M   float64
}

// Config is an immutable set of point lenses whose masses sum to one.
// Build a new Config per epoch rather than mutating one.
type Config struct {
	lenses []Mass
}

// New validates ms and returns a Config holding a private copy of it.
func New(ms []Mass) (Config, error) {
	if len(ms) == 0 {
		return Config{}, ErrEmpty
	}
	sum := 0.0
	for i, m := range ms {
		if !(m.M > 0) || math.IsInf(m.M, 0) {
			return Config{}, fmt.Errorf("lens %d mass %g: %w", i, m.M, ErrMass)
		}
		if cmplx.IsNaN(m.Pos) || cmplx.IsInf(m.Pos) {
			return Config{}, fmt.Errorf("lens %d position %v: %w", i, m.Pos, ErrGeometry)
		}
		sum += m.M
	}
	if math.Abs(sum-1) > MassTol {
		return Config{}, fmt.Errorf("mass sum %.12g: %w", sum, ErrMassSum)
	}
	cp := make([]Mass, len(ms))
	copy(cp, ms)
	return Config{lenses: cp}, nil
}

// Single is one unit-mass lens at the origin.
func Single() Config {
	return Config{lenses: []Mass{{Pos: 0, M: 1}}}
}

// Binary places the centre of mass at the origin with the primary
// (mass 1/(1+q)) at −s·q/(1+q) and the secondary at s/(1+q) on the real axis.
func Binary(s, q float64) (Config, error) {
	if !(s > 0) || !(q > 0) || math.IsInf(s, 0) || math.IsInf(q, 0) {
		return Config{}, fmt.Errorf("Binary: s=%g q=%g: %w", s, q, ErrGeometry)
	}
	m1 := 1 / (1 + q)
	m2 := q / (1 + q)
	return Config{lenses: []Mass{
		{Pos: complex(-s*q/(1+q), 0), M: m1},
		{Pos: complex(s/(1+q), 0), M: m2},
	}}, nil
}

// Triple builds a three-lens configuration: lenses 1 and 2 as in Binary(s12, q2),
// lens 3 at z1 + s13·e^{iψ} with mass ratio q3 to the primary; the set is then
// moved to its centre of mass.
func Triple(s12, q2, s13, q3, psi float64) (Config, error) {
	if !(s12 > 0) || !(q2 > 0) || !(s13 > 0) || !(q3 > 0) || math.IsNaN(psi) {
		return Config{}, fmt.Errorf("Triple: s12=%g q2=%g s13=%g q3=%g: %w", s12, q2, s13, q3, ErrGeometry)
	}
	tot := 1 + q2 + q3
	z1 := complex(-s12*q2/(1+q2), 0)
	z2 := complex(s12/(1+q2), 0)
	z3 := z1 + cmplx.Rect(s13, psi)
	ms := []Mass{{z1, 1 / tot}, {z2, q2 / tot}, {z3, q3 / tot}}
	cm := centre(ms)
	for i := range ms {
		ms[i].Pos -= cm
	}
	return Config{lenses: ms}, nil
}

// FromGeometry accepts the legacy flat layout [x1, y1, q1, x2, y2, q2, ...].
// The q values are relative weights and are normalised by their sum.
func FromGeometry(flat []float64) (Config, error) {
	if len(flat) == 0 {
		return Config{}, ErrEmpty
	}
	if len(flat)%3 != 0 {
		return Config{}, fmt.Errorf("FromGeometry: %d values is not a multiple of 3: %w", len(flat), ErrGeometry)
	}
	n := len(flat) / 3
	ms := make([]Mass, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		q := flat[3*i+2]
		if !(q > 0) || math.IsInf(q, 0) {
			return Config{}, fmt.Errorf("FromGeometry: lens %d weight %g: %w", i, q, ErrMass)
		}
		ms[i] = Mass{Pos: complex(flat[3*i], flat[3*i+1]), M: q}
		sum += q
	}
	for i := range ms {
		ms[i].M /= sum
	}
	return New(ms)
}

func centre(ms []Mass) complex128 {
	var c complex128
	w := 0.0
	for _, m := range ms {
		c += m.Pos * complex(m.M, 0)
		w += m.M
	}
	return c / complex(w, 0)
}

// N is the number of lenses.
func (c Config) N() int { return len(c.lenses) }

// Lens returns lens i.
func (c Config) Lens(i int) Mass { return c.lenses[i] }

// Lenses returns a copy of the lens list.
func (c Config) Lenses() []Mass {
	out := make([]Mass, len(c.lenses))
	copy(out, c.lenses)
	return out
}

// Positions returns the lens positions in order.
func (c Config) Positions() []complex128 {
	out := make([]complex128, len(c.lenses))
	for i, m := range c.lenses {
		out[i] = m.Pos
	}
	return out
}

// CentreOfMass is Σ mᵢ zᵢ.
func (c Config) CentreOfMass() complex128 { return centre(c.lenses) }

// Translate returns the configuration seen from a frame whose origin is at o.
func (c Config) Translate(o complex128) Config {
	ms := make([]Mass, len(c.lenses))
	for i, m := range c.lenses {
		ms[i] = Mass{Pos: m.Pos - o, M: m.M}
	}
	return Config{lenses: ms}
}

// Scale returns a copy with all positions multiplied by f (a complex f rotates too).
func (c Config) Scale(f complex128) Config {
	ms := make([]Mass, len(c.lenses))
	for i, m := range c.lenses {
		ms[i] = Mass{Pos: m.Pos * f, M: m.M}
	}
	return Config{lenses: ms}
}

// Deflection is Σ mᵢ/(z̄ − z̄ᵢ).
func (c Config) Deflection(z complex128) complex128 {
	zc := cmplx.Conj(z)
	var d complex128
	for _, m := range c.lenses {
		d += complex(m.M, 0) / (zc - cmplx.Conj(m.Pos))
	}
	return d
}

// Map is the lens equation ζ = z − Σ mᵢ/(z̄ − z̄ᵢ).
func (c Config) Map(z complex128) complex128 { return z - c.Deflection(z) }

// Shear is ∂ζ/∂z̄ = Σ mᵢ/(z̄ − z̄ᵢ)².
func (c Config) Shear(z complex128) complex128 {
	zc := cmplx.Conj(z)
	var g complex128
	for _, m := range c.lenses {
		d := zc - cmplx.Conj(m.Pos)
		g += complex(m.M, 0) / (d * d)
	}
	return g
}

// Jacobian is det J = 1 − |∂ζ/∂z̄|². The image magnification is 1/|det J|.
func (c Config) Jacobian(z complex128) float64 {
	g := cmplx.Abs(c.Shear(z))
	return 1 - g*g
}

// MinDistance is the distance from z to the nearest lens.
func (c Config) MinDistance(z complex128) float64 {
	best := math.Inf(1)
	for _, m := range c.lenses {
		if d := cmplx.Abs(z - m.Pos); d < best {
			best = d
		}
	}
	return best
}
