package lightcurve

import (
	"errors"
	"fmt"
	"math"

	"mlens-core/astrometry"
	"mlens-core/lens"
)

// ErrParamLength reports a flat parameter vector of the wrong length.
var ErrParamLength = errors.New("lightcurve: wrong number of parameters")

// Model is one of the record types below.
type Model interface {
	Kind() Kind
}

// Parallax is the microlensing parallax vector (πN, πE).
type Parallax struct {
	PiN, PiE float64
}

// PSPL is a point source and a point lens.
type PSPL struct {
	U0, TE, T0 float64
}

type PSPLParallax struct {
	PSPL
	Parallax
}

type ESPL struct {
	PSPL
	Rho float64
}

type ESPLParallax struct {
	ESPL
	Parallax
}

// Binary is a static binary lens. Alpha is the angle between the source
// trajectory and the lens axis.
type Binary struct {
	S, Q      float64
	U0, Alpha float64
	Rho       float64
	TE, T0    float64
}

// BinaryW is Binary with U0 and T0 measured from the centre of the primary
// caustic of a wide binary.
type BinaryW struct {
	Binary
}

type BinaryParallax struct {
	Binary
	Parallax
}

// BinaryLinear adds first-order orbital motion: DsDt is the relative
// separation rate (1/day), DAlphaDt the rotation rate (rad/day).
type BinaryLinear struct {
	BinaryParallax
	DsDt, DAlphaDt float64
}

// BinaryOrbital adds circular orbital motion with the secondary's velocity
// (W1, W2, W3) at the reference time, in units of s per day.
type BinaryOrbital struct {
	BinaryParallax
	W1, W2, W3 float64
}

// BinaryKepler generalises BinaryOrbital to an elliptic orbit.
type BinaryKepler struct {
	BinaryOrbital
	SzS, ArS float64
}

// BinarySource is two point sources magnified by a single lens. FR is the
// flux ratio of the second source to the first.
type BinarySource struct {
	TE, FR   float64
	U01, U02 float64
	T01, T02 float64
}

type BinarySourceParallax struct {
	BinarySource
	Parallax
}

// BinarySourceExt gives the first source radius Rho; the second follows from
// the mass-luminosity and mass-radius relations.
type BinarySourceExt struct {
	BinarySource
	Rho float64
}

type BinarySourceExtParallax struct {
	BinarySourceExt
	Parallax
}

// BinarySourceExtXallarap moves the two sources on a circular orbit around
// their centre of mass. W1..W3 are the velocity of the second source relative
// to the first at T01, in units of their separation per day.
type BinarySourceExtXallarap struct {
	BinarySourceExtParallax
	W1, W2, W3 float64
}

// Triple is a three-body lens: the binary (S, Q) plus a third mass Q3 at
// distance S13 and angle Psi from the primary.
type Triple struct {
	Binary
	S13, Q3, Psi float64
}

type TripleParallax struct {
	Triple
	Parallax
}

type PSPLAstro struct {
	PSPLParallax
	Astro astrometry.Astro
}

type ESPLAstro struct {
	ESPLParallax
	Astro astrometry.Astro
}

type BinaryAstro struct {
	BinaryParallax
	Astro astrometry.Astro
}

type TripleAstro struct {
	TripleParallax
	Astro astrometry.Astro
}

type BinarySourceAstro struct {
	BinarySourceExtParallax
	Astro astrometry.Astro
}

// Multi is an arbitrary lens configuration crossed by a straight trajectory.
type Multi struct {
	U0, Alpha float64
	Rho       float64
	TE, T0    float64
	Lens      lens.Config
}

func (PSPL) Kind() Kind                    { return KindPSPL }
func (PSPLParallax) Kind() Kind            { return KindPSPLParallax }
func (ESPL) Kind() Kind                    { return KindESPL }
func (ESPLParallax) Kind() Kind            { return KindESPLParallax }
func (Binary) Kind() Kind                  { return KindBinary }
func (BinaryW) Kind() Kind                 { return KindBinaryW }
func (BinaryParallax) Kind() Kind          { return KindBinaryParallax }
func (BinaryLinear) Kind() Kind            { return KindBinaryLinear }
func (BinaryOrbital) Kind() Kind           { return KindBinaryOrbital }
func (BinaryKepler) Kind() Kind            { return KindBinaryKepler }
func (BinarySource) Kind() Kind            { return KindBinarySource }
func (BinarySourceParallax) Kind() Kind    { return KindBinarySourceParallax }
func (BinarySourceExt) Kind() Kind         { return KindBinarySourceExt }
func (BinarySourceExtParallax) Kind() Kind { return KindBinarySourceExtParallax }
func (BinarySourceExtXallarap) Kind() Kind { return KindBinarySourceExtXallarap }
func (Triple) Kind() Kind                  { return KindTriple }
func (TripleParallax) Kind() Kind          { return KindTripleParallax }
func (PSPLAstro) Kind() Kind               { return KindPSPLAstro }
func (ESPLAstro) Kind() Kind               { return KindESPLAstro }
func (BinaryAstro) Kind() Kind             { return KindBinaryAstro }
func (TripleAstro) Kind() Kind             { return KindTripleAstro }
func (BinarySourceAstro) Kind() Kind       { return KindBinarySourceAstro }
func (Multi) Kind() Kind                   { return KindMulti }

// FromFlat decodes the flat parameter vector of kind k. Scale parameters are
// natural logarithms. KindMulti expects u0, α, ln ρ, ln tE, t0 followed by
// the lens geometry in the layout of lens.FromGeometry.
func FromFlat(k Kind, pr []float64) (Model, error) {
	if !k.valid() {
		return nil, fmt.Errorf("lightcurve.FromFlat: %v: unknown model", k)
	}
	if n := k.NumParams(); n >= 0 && len(pr) != n {
		return nil, fmt.Errorf("lightcurve.FromFlat: %v takes %d values, got %d: %w", k, n, len(pr), ErrParamLength)
	}
	exp := math.Exp
	pspl := func(logU0 bool) PSPL {
		u0 := pr[0]
		if logU0 {
			u0 = exp(u0)
		}
		return PSPL{U0: u0, TE: exp(pr[1]), T0: pr[2]}
	}
	binary := func() Binary {
		return Binary{S: exp(pr[0]), Q: exp(pr[1]), U0: pr[2], Alpha: pr[3], Rho: exp(pr[4]), TE: exp(pr[5]), T0: pr[6]}
	}
	triple := func() Triple {
		b := Binary{S: exp(pr[0]), Q: exp(pr[1]), U0: pr[2], Alpha: pr[3], Rho: exp(pr[4]), TE: exp(pr[5]), T0: pr[6]}
		return Triple{Binary: b, S13: exp(pr[7]), Q3: exp(pr[8]), Psi: pr[9]}
	}
	bsource := func() BinarySource {
		return BinarySource{TE: exp(pr[0]), FR: exp(pr[1]), U01: pr[2], U02: pr[3], T01: pr[4], T02: pr[5]}
	}
	par := func(i int) Parallax { return Parallax{PiN: pr[i], PiE: pr[i+1]} }
	astro := func(i int) astrometry.Astro {
		return astrometry.Astro{MuN: pr[i], MuE: pr[i+1], PiS: pr[i+2], ThetaE: pr[i+3]}
	}
	bsExtPar := func() BinarySourceExtParallax {
		return BinarySourceExtParallax{BinarySourceExt{bsource(), exp(pr[6])}, par(7)}
	}
	binPar := func() BinaryParallax { return BinaryParallax{binary(), par(7)} }

	switch k {
	case KindPSPL:
		return pspl(true), nil
	case KindPSPLParallax:
		return PSPLParallax{pspl(false), par(3)}, nil
	case KindESPL:
		return ESPL{pspl(true), exp(pr[3])}, nil
	case KindESPLParallax:
		return ESPLParallax{ESPL{pspl(false), exp(pr[3])}, par(4)}, nil
	case KindBinary:
		return binary(), nil
	case KindBinaryW:
		return BinaryW{binary()}, nil
	case KindBinaryParallax:
		return binPar(), nil
	case KindBinaryLinear:
		return BinaryLinear{binPar(), pr[9], pr[10]}, nil
	case KindBinaryOrbital:
		return BinaryOrbital{binPar(), pr[9], pr[10], pr[11]}, nil
	case KindBinaryKepler:
		return BinaryKepler{BinaryOrbital{binPar(), pr[9], pr[10], pr[11]}, pr[12], pr[13]}, nil
	case KindBinarySource:
		return bsource(), nil
	case KindBinarySourceParallax:
		return BinarySourceParallax{bsource(), par(6)}, nil
	case KindBinarySourceExt:
		return BinarySourceExt{bsource(), exp(pr[6])}, nil
	case KindBinarySourceExtParallax:
		return bsExtPar(), nil
	case KindBinarySourceExtXallarap:
		return BinarySourceExtXallarap{bsExtPar(), pr[9], pr[10], pr[11]}, nil
	case KindTriple:
		return triple(), nil
	case KindTripleParallax:
		return TripleParallax{triple(), par(10)}, nil
	case KindPSPLAstro:
		return PSPLAstro{PSPLParallax{pspl(false), par(3)}, astro(5)}, nil
	case KindESPLAstro:
		return ESPLAstro{ESPLParallax{ESPL{pspl(false), exp(pr[3])}, par(4)}, astro(6)}, nil
	case KindBinaryAstro:
		return BinaryAstro{binPar(), astro(9)}, nil
	case KindTripleAstro:
		return TripleAstro{TripleParallax{triple(), par(10)}, astro(12)}, nil
	case KindBinarySourceAstro:
		return BinarySourceAstro{bsExtPar(), astro(9)}, nil
	case KindMulti:
		if len(pr) < 8 || (len(pr)-5)%3 != 0 {
			return nil, fmt.Errorf("lightcurve.FromFlat: multi takes 5+3N values, got %d: %w", len(pr), ErrParamLength)
		}
		cfg, err := lens.FromGeometry(pr[5:])
		if err != nil {
			return nil, fmt.Errorf("lightcurve.FromFlat: %w", err)
		}
		return Multi{U0: pr[0], Alpha: pr[1], Rho: exp(pr[2]), TE: exp(pr[3]), T0: pr[4], Lens: cfg}, nil
	}
	return nil, fmt.Errorf("lightcurve.FromFlat: %v: unknown model", k)
}
