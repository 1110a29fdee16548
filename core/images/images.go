// core/images/images.go
package images

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"mlens-core/cpoly"
	"mlens-core/lens"
)

var (
	// ErrImageCount means no admissible image set passed the residual test:
	// the root finder was numerically unstable for this source position.
	ErrImageCount = errors.New("images: no admissible image set")
	// ErrDegenerate is returned when the source sits exactly on a single lens.
	ErrDegenerate = errors.New("images: source on lens singularity")
)

// Method selects how the lens equation is solved.
type Method int

const (
	SinglePoly Method = iota // one polynomial, origin at the centre of mass
	MultiPoly                // one polynomial per lens, origin on that lens
	NoPoly                   // Newton on the lens equation, SinglePoly fallback
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case SinglePoly:
		return "singlepoly"
	case MultiPoly:
		return "multipoly"
	case NoPoly:
		return "nopoly"
	default:
		return "unknown"
	}
}

// ParseMethod parses a method name (case-insensitive).
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singlepoly", "single":
		return SinglePoly, nil
	case "multipoly", "multi":
		return MultiPoly, nil
	case "nopoly", "newton":
		return NoPoly, nil
	}
	return SinglePoly, fmt.Errorf("ParseMethod: unknown method %q", s)
}

// Image is one lensed image of a point source.
type Image struct {
	Pos      complex128
	Parity   int     // +1 or −1, sign of Jacobian
	Jacobian float64 // det J = 1 − |∂ζ/∂z̄|²
}

// Mag is the image magnification 1/|det J|.
func (im Image) Mag() float64 { return 1 / math.Abs(im.Jacobian) }

// Solution is the outcome of one lens-equation solve.
type Solution struct {
	Images []Image
	// Roots are the raw polynomial roots (or Newton seeds for NoPoly); pass
	// them as the hint of a nearby solve to warm-start it.
	Roots []complex128
	// FellBack is set when NoPoly had to fall back to the polynomial.
	FellBack bool
}

// Solve finds all images of the point source at zeta. hint may carry the Roots
// of a previous Solution at a nearby source position.
//
// On ErrImageCount the Solution still carries the best-effort image set.
func Solve(cfg lens.Config, zeta complex128, m Method, hint []complex128) (Solution, error) {
	if cfg.N() == 0 {
		return Solution{}, lens.ErrEmpty
	}
	if cmplx.IsNaN(zeta) || cmplx.IsInf(zeta) {
		return Solution{}, fmt.Errorf("Solve: source %v: %w", zeta, lens.ErrSource)
	}
	if cfg.N() == 1 {
		return singleLens(cfg.Lens(0), zeta)
	}
	switch m {
	case MultiPoly:
		return solveMulti(cfg, zeta)
	case NoPoly:
		sol, err := solveNewton(cfg, zeta, hint)
		if err == nil {
			return sol, nil
		}
		sol, err = solveSingle(cfg, zeta, nil)
		sol.FellBack = true
		return sol, err
	default:
		return solveSingle(cfg, zeta, hint)
	}
}

// singleLens is the closed form z± = w/2 (1 ± √(1 + 4m/|w|²)) around the lens.
func singleLens(l lens.Mass, zeta complex128) (Solution, error) {
	w := zeta - l.Pos
	u := cmplx.Abs(w)
	if u == 0 {
		return Solution{}, ErrDegenerate
	}
	root := math.Sqrt(1 + 4*l.M/(u*u))
	zp := w*complex(0.5*(1+root), 0) + l.Pos
	zm := w*complex(0.5*(1-root), 0) + l.Pos
	jp := jacobianSingle(l, zp)
	jm := jacobianSingle(l, zm)
	return Solution{
		Images: []Image{
			{Pos: zp, Parity: 1, Jacobian: jp},
			{Pos: zm, Parity: -1, Jacobian: jm},
		},
		Roots: []complex128{zp, zm},
	}, nil
}

func jacobianSingle(l lens.Mass, z complex128) float64 {
	d := cmplx.Abs(z - l.Pos)
	g := l.M / (d * d)
	return 1 - g*g
}

func solveSingle(cfg lens.Config, zeta complex128, hint []complex128) (Solution, error) {
	p := LensPoly(cfg, zeta)
	roots, err := cpoly.Roots(p, hint)
	if err != nil && !errors.Is(err, cpoly.ErrNoConvergence) {
		return Solution{}, fmt.Errorf("Solve: %w", err)
	}
	cands := make([]candidate, 0, len(roots))
	for _, r := range roots {
		cands = append(cands, refine(cfg, zeta, r, lensNewtonSteps))
	}
	ims, serr := selectImages(cfg, dedupe(cands))
	return Solution{Images: ims, Roots: roots}, serr
}

func solveMulti(cfg lens.Config, zeta complex128) (Solution, error) {
	var (
		cands []candidate
		first []complex128
	)
	for i := 0; i < cfg.N(); i++ {
		o := cfg.Lens(i).Pos
		p := LensPoly(cfg.Translate(o), zeta-o)
		roots, err := cpoly.Roots(p, nil)
		if err != nil && !errors.Is(err, cpoly.ErrNoConvergence) {
			return Solution{}, fmt.Errorf("Solve: %w", err)
		}
		for k := range roots {
			roots[k] += o
			cands = append(cands, refine(cfg, zeta, roots[k], lensNewtonSteps))
		}
		if first == nil {
			first = roots
		}
	}
	cands = dedupe(cands)
	ims, err := selectImages(cfg, cands)
	return Solution{Images: ims, Roots: first}, err
}
