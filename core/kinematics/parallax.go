package kinematics

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrTarget reports invalid sky coordinates.
var ErrTarget = errors.New("kinematics: invalid target coordinates")

// lightDay is the speed of light in AU/day.
const lightDay = 173.1446326846693

// jdOffset converts the library's reduced times (t − 2450000) to JD.
const jdOffset = 2450000.0

// TimeSystem tells how input times relate to the ephemeris' Julian dates.
type TimeSystem int

const (
	HJD TimeSystem = iota // heliocentric, corrected for light travel time
	JD
)

func (ts TimeSystem) String() string {
	if ts == JD {
		return "jd"
	}
	return "hjd"
}

// ParseTimeSystem accepts "hjd" (also empty) and "jd", case-insensitively.
func ParseTimeSystem(s string) (TimeSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hjd":
		return HJD, nil
	case "jd":
		return JD, nil
	}
	return HJD, fmt.Errorf("kinematics: unknown time system %q", s)
}

// Target is a sky position in decimal degrees.
type Target struct {
	RA  float64
	Dec float64
}

func (t Target) Validate() error {
	if math.IsNaN(t.RA) || math.IsInf(t.RA, 0) || math.IsNaN(t.Dec) || t.Dec < -90 || t.Dec > 90 {
		return fmt.Errorf("RA=%g Dec=%g: %w", t.RA, t.Dec, ErrTarget)
	}
	return nil
}

// Basis returns the unit vectors towards the target, to local North and to
// local East.
func (t Target) Basis() (dir, north, east Vec3) {
	a, d := t.RA*deg, t.Dec*deg
	sa, ca := math.Sincos(a)
	sd, cd := math.Sincos(d)
	dir = Vec3{cd * ca, cd * sa, sd}
	north = Vec3{-sd * ca, -sd * sa, cd}
	east = Vec3{-sa, ca, 0}
	return dir, north, east
}

// ParallaxConfig describes the observer.
type ParallaxConfig struct {
	Target Target
	T0Par  float64    // reference time, reduced (t − 2450000)
	Time   TimeSystem // how event times are given
	Sun    Ephemeris  // nil selects SunModel
	// Satellite, when set, is the observer's geocentric position.
	Satellite Ephemeris
}

// Parallax computes the observer's displacement from the rectilinear
// reference track: the Sun as seen from the observer, minus its position and
// velocity at T0Par, projected on North and East.
type Parallax struct {
	cfg          ParallaxConfig
	dir, n, e    Vec3
	ref, refRate Vec3
}

// velocityStep is the half-width, in days, of the central difference used
// for the Sun's velocity at T0Par.
const velocityStep = 0.05

// NewParallax validates cfg and fixes the reference position and velocity.
func NewParallax(cfg ParallaxConfig) (*Parallax, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("kinematics.NewParallax: %w", err)
	}
	if cfg.Sun == nil {
		cfg.Sun = SunModel{}
	}
	p := &Parallax{cfg: cfg}
	p.dir, p.n, p.e = cfg.Target.Basis()

	jd0, err := p.julian(cfg.T0Par)
	if err != nil {
		return nil, fmt.Errorf("kinematics.NewParallax: t0=%g: %w", cfg.T0Par, err)
	}
	if p.ref, err = cfg.Sun.Position(jd0); err != nil {
		return nil, fmt.Errorf("kinematics.NewParallax: t0=%g: %w", cfg.T0Par, err)
	}
	plus, err := cfg.Sun.Position(jd0 + velocityStep)
	if err != nil {
		return nil, fmt.Errorf("kinematics.NewParallax: %w", err)
	}
	minus, err := cfg.Sun.Position(jd0 - velocityStep)
	if err != nil {
		return nil, fmt.Errorf("kinematics.NewParallax: %w", err)
	}
	p.refRate = plus.Sub(minus).Scale(1 / (2 * velocityStep))
	return p, nil
}

// julian converts a reduced event time to the Julian date of the ephemeris.
// HJD = JD + (r⊕·n̂)/c and r⊕ = −S, so JD = HJD + (S·n̂)/c.
func (p *Parallax) julian(t float64) (float64, error) {
	jd := t + jdOffset
	if p.cfg.Time == JD {
		return jd, nil
	}
	s, err := p.cfg.Sun.Position(jd)
	if err != nil {
		return 0, err
	}
	return jd + s.Dot(p.dir)/lightDay, nil
}

// Offsets returns the projected displacement (dN, dE) in AU at time t. It is
// exactly zero at T0Par for an Earth-bound observer.
func (p *Parallax) Offsets(t float64) (dN, dE float64, err error) {
	if t == p.cfg.T0Par && p.cfg.Satellite == nil {
		return 0, 0, nil
	}
	jd, err := p.julian(t)
	if err != nil {
		return 0, 0, fmt.Errorf("kinematics.Offsets: t=%g: %w", t, err)
	}
	s, err := p.cfg.Sun.Position(jd)
	if err != nil {
		return 0, 0, fmt.Errorf("kinematics.Offsets: t=%g: %w", t, err)
	}
	if p.cfg.Satellite != nil {
		sat, err := p.cfg.Satellite.Position(jd)
		if err != nil {
			return 0, 0, fmt.Errorf("kinematics.Offsets: satellite t=%g: %w", t, err)
		}
		s = s.Sub(sat)
	}
	d := s.Sub(p.ref).Sub(p.refRate.Scale(t - p.cfg.T0Par))
	return d.Dot(p.n), d.Dot(p.e), nil
}

// Shift converts offsets into trajectory corrections for a parallax vector
// (piN, piE): Δτ along the motion and Δβ across it.
func Shift(piN, piE, dN, dE float64) (dTau, dBeta float64) {
	return piN*dN + piE*dE, piN*dE - piE*dN
}
