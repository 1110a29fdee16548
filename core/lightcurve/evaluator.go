package lightcurve

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"mlens-core/astrometry"
	"mlens-core/contour"
	"mlens-core/espl"
	"mlens-core/kinematics"
	"mlens-core/lens"
)

// ErrModel reports model parameters outside their domain.
var ErrModel = errors.New("lightcurve: invalid model parameters")

const (
	defaultMassLum    = 4
	defaultMassRadius = 0.9
)

// Options configures an evaluation. The zero value evaluates models without
// parallax with default accuracy.
type Options struct {
	Contour contour.Options

	// Table, when set, serves single-lens finite-source magnifications
	// inside its range.
	Table espl.Table

	LD   float64 // linear limb darkening of every source
	Auto bool    // allow the hexadecapole approximation

	// Target is required by models with parallax.
	Target *kinematics.Target
	// T0Par is the parallax and orbit reference time; nil selects the
	// model's t0 (t01 for binary sources).
	T0Par     *float64
	Time      kinematics.TimeSystem
	Sun       kinematics.Ephemeris
	Satellite kinematics.Ephemeris

	// Exponents of L ∝ M^MassLum and R ∝ M^MassRadius, used to derive the
	// second source of binary-source models. Zero selects 4 and 0.9.
	MassLum    float64
	MassRadius float64

	// SecondarySourceOff reports the first source alone in Mag while still
	// filling the second source's channels.
	SecondarySourceOff bool
}

type lensKind int

const (
	lensSingle lensKind = iota
	lensBinary
	lensFixed
)

type source struct {
	u0, t0, rho float64
}

// Evaluator is a validated model ready to be evaluated at any time. Eval is
// safe for concurrent use.
type Evaluator struct {
	kind Kind
	opt  Options

	lk    lensKind
	cfg   lens.Config
	s, q  float64
	alpha float64
	tE    float64
	shift complex128
	orbit kinematics.Orbit
	tRef  float64

	src  [2]source
	nsrc int
	fr   float64

	pi       Parallax
	parallax *kinematics.Parallax

	xal  kinematics.Orbit
	xRef float64
	qs   float64
	d0   complex128

	astro bool
	sky   astrometry.SkyFrame
}

// Kind is the model kind being evaluated.
func (e *Evaluator) Kind() Kind { return e.kind }

// Prepare validates m and builds everything that does not depend on time.
// Errors here are configuration errors.
func Prepare(m Model, opt Options) (*Evaluator, error) {
	if m == nil {
		return nil, fmt.Errorf("lightcurve.Prepare: nil model: %w", ErrModel)
	}
	if opt.LD < 0 || opt.LD > 1 || math.IsNaN(opt.LD) {
		return nil, fmt.Errorf("lightcurve.Prepare: limb darkening %g: %w", opt.LD, ErrModel)
	}
	if opt.MassLum == 0 {
		opt.MassLum = defaultMassLum
	}
	if opt.MassRadius == 0 {
		opt.MassRadius = defaultMassRadius
	}
	e := &Evaluator{kind: m.Kind(), opt: opt}
	if err := e.build(m); err != nil {
		return nil, fmt.Errorf("lightcurve.Prepare: %v: %w", m.Kind(), err)
	}
	if !(e.tE > 0) || math.IsInf(e.tE, 0) {
		return nil, fmt.Errorf("lightcurve.Prepare: tE=%g: %w", e.tE, ErrModel)
	}
	for i := 0; i < e.nsrc; i++ {
		if s := e.src[i]; !(s.rho >= 0) || math.IsInf(s.rho, 0) || math.IsNaN(s.u0+s.t0) {
			return nil, fmt.Errorf("lightcurve.Prepare: source %d (u0=%g t0=%g rho=%g): %w", i+1, s.u0, s.t0, s.rho, ErrModel)
		}
	}
	return e, nil
}

func (e *Evaluator) build(m Model) error {
	switch v := m.(type) {
	case PSPL:
		e.setPSPL(v, 0)
	case PSPLParallax:
		e.setPSPL(v.PSPL, 0)
		return e.setParallax(v.Parallax, v.T0)
	case ESPL:
		e.setPSPL(v.PSPL, v.Rho)
	case ESPLParallax:
		e.setPSPL(v.PSPL, v.Rho)
		return e.setParallax(v.Parallax, v.T0)
	case Binary:
		return e.setBinary(v)
	case BinaryW:
		if err := e.setBinary(v.Binary); err != nil {
			return err
		}
		if v.S > 1 {
			e.shift = complex(-v.Q/(1+v.Q)*(v.S-1/v.S), 0)
		}
	case BinaryParallax:
		return e.setBinaryParallax(v)
	case BinaryLinear:
		if err := e.setBinaryParallax(v.BinaryParallax); err != nil {
			return err
		}
		e.orbit = kinematics.Linear{W1: v.DsDt, W2: v.DAlphaDt}
	case BinaryOrbital:
		if err := e.setBinaryParallax(v.BinaryParallax); err != nil {
			return err
		}
		e.orbit = kinematics.Circular{W1: v.W1, W2: v.W2, W3: v.W3}
	case BinaryKepler:
		if err := e.setBinaryParallax(v.BinaryParallax); err != nil {
			return err
		}
		k, err := kinematics.NewKepler(v.W1, v.W2, v.W3, v.SzS, v.ArS)
		if err != nil {
			return err
		}
		e.orbit = k
	case BinarySource:
		return e.setBinarySource(v, 0)
	case BinarySourceParallax:
		if err := e.setBinarySource(v.BinarySource, 0); err != nil {
			return err
		}
		return e.setParallax(v.Parallax, v.T01)
	case BinarySourceExt:
		return e.setBinarySource(v.BinarySource, v.Rho)
	case BinarySourceExtParallax:
		return e.setBinarySourceExtParallax(v)
	case BinarySourceExtXallarap:
		if err := e.setBinarySourceExtParallax(v.BinarySourceExtParallax); err != nil {
			return err
		}
		e.xal = kinematics.Circular{W1: v.W1, W2: v.W2, W3: v.W3}
		e.xRef = v.T01 // orbital phase counts from the first source's closest approach
		e.qs = math.Pow(v.FR, 1/e.opt.MassLum)
		// separation of the rectilinear tracks, constant in time
		y1 := -complex(0, v.U01)
		y2 := -complex((v.T01-v.T02)/v.TE, v.U02)
		e.d0 = y2 - y1
	case Triple:
		return e.setTriple(v)
	case TripleParallax:
		if err := e.setTriple(v.Triple); err != nil {
			return err
		}
		return e.setParallax(v.Parallax, v.T0)
	case PSPLAstro:
		e.setPSPL(v.PSPL, 0)
		if err := e.setParallax(v.Parallax, v.T0); err != nil {
			return err
		}
		e.setAstro(v.Astro)
	case ESPLAstro:
		e.setPSPL(v.PSPL, v.Rho)
		if err := e.setParallax(v.Parallax, v.T0); err != nil {
			return err
		}
		e.setAstro(v.Astro)
	case BinaryAstro:
		if err := e.setBinaryParallax(v.BinaryParallax); err != nil {
			return err
		}
		e.setAstro(v.Astro)
	case TripleAstro:
		if err := e.setTriple(v.Triple); err != nil {
			return err
		}
		if err := e.setParallax(v.Parallax, v.T0); err != nil {
			return err
		}
		e.setAstro(v.Astro)
	case BinarySourceAstro:
		if err := e.setBinarySourceExtParallax(v.BinarySourceExtParallax); err != nil {
			return err
		}
		e.setAstro(v.Astro)
	case Multi:
		if v.Lens.N() == 0 {
			return lens.ErrEmpty
		}
		e.lk, e.cfg = lensFixed, v.Lens
		e.alpha, e.tE = v.Alpha, v.TE
		e.src[0], e.nsrc = source{v.U0, v.T0, v.Rho}, 1
		e.tRef = v.T0
	default:
		return fmt.Errorf("unsupported model %T: %w", m, ErrModel)
	}
	return nil
}

func (e *Evaluator) setPSPL(p PSPL, rho float64) {
	e.lk = lensSingle
	e.tE = p.TE
	e.src[0], e.nsrc = source{p.U0, p.T0, rho}, 1
	e.tRef = p.T0
}

func (e *Evaluator) setBinary(b Binary) error {
	cfg, err := lens.Binary(b.S, b.Q)
	if err != nil {
		return err
	}
	e.lk, e.cfg = lensBinary, cfg
	e.s, e.q = b.S, b.Q
	e.alpha, e.tE = b.Alpha, b.TE
	e.src[0], e.nsrc = source{b.U0, b.T0, b.Rho}, 1
	e.tRef = b.T0
	return nil
}

func (e *Evaluator) setBinaryParallax(b BinaryParallax) error {
	if err := e.setBinary(b.Binary); err != nil {
		return err
	}
	return e.setParallax(b.Parallax, b.T0)
}

func (e *Evaluator) setTriple(tr Triple) error {
	cfg, err := lens.Triple(tr.S, tr.Q, tr.S13, tr.Q3, tr.Psi)
	if err != nil {
		return err
	}
	e.lk, e.cfg = lensFixed, cfg
	e.alpha, e.tE = tr.Alpha, tr.TE
	e.src[0], e.nsrc = source{tr.U0, tr.T0, tr.Rho}, 1
	e.tRef = tr.T0
	return nil
}

func (e *Evaluator) setBinarySource(b BinarySource, rho float64) error {
	if !(b.FR > 0) || math.IsInf(b.FR, 0) {
		return fmt.Errorf("flux ratio %g: %w", b.FR, ErrModel)
	}
	e.lk = lensSingle
	e.tE = b.TE
	rho2 := rho * math.Pow(b.FR, e.opt.MassRadius/e.opt.MassLum)
	e.src = [2]source{{b.U01, b.T01, rho}, {b.U02, b.T02, rho2}}
	e.nsrc = 2
	e.fr = b.FR
	e.tRef = b.T01
	return nil
}

func (e *Evaluator) setBinarySourceExtParallax(b BinarySourceExtParallax) error {
	if err := e.setBinarySource(b.BinarySource, b.Rho); err != nil {
		return err
	}
	return e.setParallax(b.Parallax, b.T01)
}

func (e *Evaluator) setParallax(p Parallax, t0 float64) error {
	if e.opt.Target == nil {
		return fmt.Errorf("parallax needs target coordinates: %w", kinematics.ErrTarget)
	}
	if e.opt.T0Par != nil {
		t0 = *e.opt.T0Par
	}
	par, err := kinematics.NewParallax(kinematics.ParallaxConfig{
		Target:    *e.opt.Target,
		T0Par:     t0,
		Time:      e.opt.Time,
		Sun:       e.opt.Sun,
		Satellite: e.opt.Satellite,
	})
	if err != nil {
		return err
	}
	e.pi, e.parallax, e.tRef = p, par, t0
	return nil
}

// setAstro must follow setParallax: the sky frame is anchored on the
// parallax direction and reference time.
func (e *Evaluator) setAstro(a astrometry.Astro) {
	alpha := 0.0
	if e.lk != lensSingle {
		alpha = e.alpha
	}
	e.astro = true
	e.sky = astrometry.NewSkyFrame(e.pi.PiN, e.pi.PiE, alpha, e.tRef, a)
}

// Eval evaluates the model at time t. Failures are reported in the epoch's
// Status with NaN in the affected channels.
func (e *Evaluator) Eval(t float64) Epoch {
	ep := newEpoch(t)
	var dN, dE, dTau, dBeta float64
	if e.parallax != nil {
		var err error
		if dN, dE, err = e.parallax.Offsets(t); err != nil {
			ep.fail(err)
			return ep
		}
		dTau, dBeta = kinematics.Shift(e.pi.PiN, e.pi.PiE, dN, dE)
	}

	cfg, alpha := e.cfg, e.alpha
	if e.orbit != nil {
		scale, dTheta := e.orbit.Advance(t - e.tRef)
		ep.Sep = e.s * scale
		c, err := lens.Binary(ep.Sep, e.q)
		if err != nil {
			ep.fail(fmt.Errorf("lightcurve: t=%g: %w", t, err))
			return ep
		}
		cfg, alpha = c, e.alpha-dTheta
	}
	rot := complex(1, 0)
	if e.lk != lensSingle {
		rot = cmplx.Rect(1, alpha)
	}

	var ys [2]complex128
	for i := 0; i < e.nsrc; i++ {
		tau := (t-e.src[i].t0)/e.tE + dTau
		beta := e.src[i].u0 + dBeta
		ys[i] = -complex(tau, beta)*rot + e.shift
	}
	if e.xal != nil {
		scale, dTheta := e.xal.Advance(t - e.xRef)
		d := e.d0 * cmplx.Rect(scale, dTheta)
		cm := (ys[0] + complex(e.qs, 0)*ys[1]) / complex(1+e.qs, 0)
		ys[0] = cm - d*complex(e.qs/(1+e.qs), 0)
		ys[1] = cm + d/complex(1+e.qs, 0)
		ep.Sep = cmplx.Abs(d)
	}

	ep.Y1, ep.Y2 = real(ys[0]), imag(ys[0])
	if e.nsrc == 2 {
		ep.Y1S2, ep.Y2S2 = real(ys[1]), imag(ys[1])
	}

	var res [2]contour.Result
	for i := 0; i < e.nsrc; i++ {
		r, err := e.magnify(cfg, ys[i], e.src[i].rho)
		ep.Status.absorb(r)
		if err != nil {
			ep.fail(fmt.Errorf("lightcurve: t=%g source %d: %w", t, i+1, err))
			return ep
		}
		res[i] = r
	}

	w := e.fr
	if e.opt.SecondarySourceOff {
		w = 0
	}
	if e.nsrc == 1 {
		ep.Mag = res[0].Mag
	} else {
		ep.Mag = (res[0].Mag + w*res[1].Mag) / (1 + w)
	}

	if e.astro {
		src := e.sky.Source(t, dN, dE)
		l := e.sky.Lens(src, ys[0])
		ep.LensN, ep.LensE = real(l), imag(l)
		img := make([]astrometry.Series, e.nsrc)
		for i := range img {
			c := e.sky.Image(src, res[i].Centroid, ys[0])
			img[i] = astrometry.Series{Mag: []float64{res[i].Mag}, N: []float64{real(c)}, E: []float64{imag(c)}}
		}
		if e.nsrc == 1 {
			ep.CentroidN, ep.CentroidE = img[0].N[0], img[0].E[0]
		} else {
			comb, err := astrometry.CombineCentroids(img[1], img[0], w)
			if err != nil {
				ep.fail(err)
				return ep
			}
			ep.CentroidN, ep.CentroidE = comb.N[0], comb.E[0]
		}
	}
	return ep
}

// magnify evaluates one source. Single-lens point sources use the closed
// form unless a centroid is needed.
func (e *Evaluator) magnify(cfg lens.Config, y complex128, rho float64) (contour.Result, error) {
	if e.lk == lensSingle && !e.astro {
		u := cmplx.Abs(y)
		if rho == 0 {
			a := espl.PSPLMag(u)
			return contour.Result{Mag: a, Samples: 1, PrecisionMet: !math.IsInf(a, 0)}, nil
		}
		if e.opt.Table != nil {
			a, err := e.opt.Table.Mag(u, rho, e.opt.LD)
			if err == nil {
				return contour.Result{Mag: a, PrecisionMet: true}, nil
			}
			if !errors.Is(err, espl.ErrOutOfRange) {
				return contour.Result{Mag: math.NaN()}, err
			}
		}
	}
	if e.lk == lensSingle {
		cfg = lens.Single()
	}
	src := lens.Source{Pos: y, Radius: rho, LD: e.opt.LD}
	if e.opt.Auto {
		return contour.Auto(cfg, src, e.opt.Contour)
	}
	return contour.Mag(cfg, src, e.opt.Contour)
}

// Generate evaluates m at each time, in order.
func Generate(m Model, times []float64, opt Options) (*Result, error) {
	e, err := Prepare(m, opt)
	if err != nil {
		return nil, err
	}
	r := NewResult(e.kind, len(times))
	for i, t := range times {
		r.Set(i, e.Eval(t))
	}
	return r, nil
}
