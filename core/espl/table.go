package espl

import (
	"errors"
	"fmt"
	"math"

	"mlens-core/contour"
)

var (
	// ErrOutOfRange reports a source radius outside the table.
	ErrOutOfRange = errors.New("espl: outside table range")
	// ErrTable reports a malformed or incomplete table.
	ErrTable = errors.New("espl: invalid table")
)

// Table looks up finite-source single-lens magnifications.
type Table interface {
	Mag(u, rho, a1 float64) (float64, error)
}

// GridSpec lays out a table: ZN points of z = u/ρ on [0, ZMax] and RhoN
// points of ln ρ on [ln RhoMin, ln RhoMax].
type GridSpec struct {
	ZMax   float64
	ZN     int
	RhoMin float64
	RhoMax float64
	RhoN   int
}

// DefaultGridSpec covers 1e-4 ≤ ρ ≤ 1 and u up to 10ρ.
func DefaultGridSpec() GridSpec {
	return GridSpec{ZMax: 10, ZN: 201, RhoMin: 1e-4, RhoMax: 1, RhoN: 41}
}

func (s GridSpec) validate() error {
	if !(s.ZMax > 0) || s.ZN < 2 || s.RhoN < 2 || !(s.RhoMin > 0) || !(s.RhoMax > s.RhoMin) {
		return fmt.Errorf("espl: grid %+v: %w", s, ErrTable)
	}
	return nil
}

// Grid stores finite-source magnifications divided by the point-source value
// at max(u, ρ). U holds a uniform source, Mu a source with brightness
// √(1 − r²/ρ²); a linear law is a flux-weighted mix of the two. Planes are
// indexed [rho][z].
type Grid struct {
	Spec GridSpec
	U    [][]float64
	Mu   [][]float64
}

// NewGrid allocates an empty grid for spec.
func NewGrid(spec GridSpec) (*Grid, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	g := &Grid{Spec: spec, U: make([][]float64, spec.RhoN), Mu: make([][]float64, spec.RhoN)}
	for i := range g.U {
		g.U[i] = make([]float64, spec.ZN)
		g.Mu[i] = make([]float64, spec.ZN)
	}
	return g, nil
}

// Z returns the j-th node of the z axis.
func (g *Grid) Z(j int) float64 {
	return g.Spec.ZMax * float64(j) / float64(g.Spec.ZN-1)
}

// Rho returns the i-th node of the ρ axis.
func (g *Grid) Rho(i int) float64 {
	lo, hi := math.Log(g.Spec.RhoMin), math.Log(g.Spec.RhoMax)
	return math.Exp(lo + (hi-lo)*float64(i)/float64(g.Spec.RhoN-1))
}

func norm(u, rho float64) float64 {
	return PSPLMag(math.Max(u, rho))
}

// FillRow integrates row i (one ρ) of both planes. Rows are independent and
// may be filled concurrently.
func (g *Grid) FillRow(i int, opt contour.Options) error {
	if i < 0 || i >= g.Spec.RhoN {
		return fmt.Errorf("espl.FillRow: row %d: %w", i, ErrOutOfRange)
	}
	rho := g.Rho(i)
	for j := 0; j < g.Spec.ZN; j++ {
		u := g.Z(j) * rho
		uni, err := Mag(u, rho, opt)
		if err != nil {
			return fmt.Errorf("espl.FillRow: u=%g rho=%g: %w", u, rho, err)
		}
		mu, err := MagDark(u, rho, 1, opt)
		if err != nil {
			return fmt.Errorf("espl.FillRow: u=%g rho=%g: %w", u, rho, err)
		}
		n := norm(u, rho)
		g.U[i][j] = uni.Mag / n
		g.Mu[i][j] = mu.Mag / n
	}
	return nil
}

// Build fills every row in order.
func Build(spec GridSpec, opt contour.Options) (*Grid, error) {
	g, err := NewGrid(spec)
	if err != nil {
		return nil, err
	}
	for i := 0; i < spec.RhoN; i++ {
		if err := g.FillRow(i, opt); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Validate checks the plane shapes and that every entry is finite and
// positive.
func (g *Grid) Validate() error {
	if err := g.Spec.validate(); err != nil {
		return err
	}
	for _, plane := range [][][]float64{g.U, g.Mu} {
		if len(plane) != g.Spec.RhoN {
			return fmt.Errorf("espl: %d rows, want %d: %w", len(plane), g.Spec.RhoN, ErrTable)
		}
		for i, row := range plane {
			if len(row) != g.Spec.ZN {
				return fmt.Errorf("espl: row %d has %d entries, want %d: %w", i, len(row), g.Spec.ZN, ErrTable)
			}
			for j, v := range row {
				if !(v > 0) || math.IsInf(v, 0) {
					return fmt.Errorf("espl: entry [%d][%d]=%g: %w", i, j, v, ErrTable)
				}
			}
		}
	}
	return nil
}

// Mag interpolates the table bilinearly in (z, ln ρ). Beyond ZMax the
// finite-source correction decays as (ZMax/z)².
func (g *Grid) Mag(u, rho, a1 float64) (float64, error) {
	u = math.Abs(u)
	if !(rho >= g.Spec.RhoMin && rho <= g.Spec.RhoMax) {
		return math.NaN(), fmt.Errorf("espl.Grid.Mag: rho=%g not in [%g, %g]: %w", rho, g.Spec.RhoMin, g.Spec.RhoMax, ErrOutOfRange)
	}
	if a1 < 0 || a1 > 1 || math.IsNaN(u) {
		return math.NaN(), fmt.Errorf("espl.Grid.Mag: u=%g a1=%g: %w", u, a1, ErrOutOfRange)
	}
	z := u / rho
	lo, hi := math.Log(g.Spec.RhoMin), math.Log(g.Spec.RhoMax)
	y := (math.Log(rho) - lo) / (hi - lo) * float64(g.Spec.RhoN-1)
	x := math.Min(z, g.Spec.ZMax) / g.Spec.ZMax * float64(g.Spec.ZN-1)

	ru := bilinear(g.U, x, y)
	rmu := bilinear(g.Mu, x, y)
	if z > g.Spec.ZMax {
		f := (g.Spec.ZMax / z) * (g.Spec.ZMax / z)
		ru = 1 + (ru-1)*f
		rmu = 1 + (rmu-1)*f
	}
	wu, wmu := 1-a1, 2*a1/3
	r := (wu*ru + wmu*rmu) / (wu + wmu)
	return r * norm(u, rho), nil
}

func bilinear(p [][]float64, x, y float64) float64 {
	i := int(math.Floor(y))
	j := int(math.Floor(x))
	if i >= len(p)-1 {
		i = len(p) - 2
	}
	if j >= len(p[0])-1 {
		j = len(p[0]) - 2
	}
	if i < 0 {
		i = 0
	}
	if j < 0 {
		j = 0
	}
	fy, fx := y-float64(i), x-float64(j)
	return (1-fy)*((1-fx)*p[i][j]+fx*p[i][j+1]) + fy*((1-fx)*p[i+1][j]+fx*p[i+1][j+1])
}
