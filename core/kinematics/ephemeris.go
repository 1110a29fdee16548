// Package kinematics provides the time-dependent geometry of an event: the
// observer's parallax offsets and the orbital motion of lens or source
// components.
package kinematics

import (
	"errors"
	"math"
)

// ErrEphemeris reports a time outside an ephemeris' coverage.
var ErrEphemeris = errors.New("kinematics: ephemeris unavailable")

// Vec3 is a Cartesian vector in the equatorial frame, in AU.
type Vec3 [3]float64

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }

func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{f * v[0], f * v[1], f * v[2]} }

func (v Vec3) Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Ephemeris returns a geocentric equatorial position (AU) at a Julian date.
// For the Sun this is the Sun seen from the geocentre; for a satellite it is
// the satellite's own geocentric position.
type Ephemeris interface {
	Position(jd float64) (Vec3, error)
}

// EphemerisFunc adapts a function to Ephemeris.
type EphemerisFunc func(jd float64) (Vec3, error)

func (f EphemerisFunc) Position(jd float64) (Vec3, error) { return f(jd) }

const deg = math.Pi / 180

// SunModel is the low-precision solar ephemeris of the Astronomical Almanac,
// good to about 0.01° between 1950 and 2050.
type SunModel struct{}

func (SunModel) Position(jd float64) (Vec3, error) {
	if math.IsNaN(jd) || math.IsInf(jd, 0) {
		return Vec3{}, ErrEphemeris
	}
	n := jd - 2451545.0
	l := math.Mod(280.460+0.9856474*n, 360) * deg
	g := math.Mod(357.528+0.9856003*n, 360) * deg
	lambda := l + 1.915*deg*math.Sin(g) + 0.020*deg*math.Sin(2*g)
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
	eps := (23.439 - 0.0000004*n) * deg
	return Vec3{
		r * math.Cos(lambda),
		r * math.Cos(eps) * math.Sin(lambda),
		r * math.Sin(eps) * math.Sin(lambda),
	}, nil
}
