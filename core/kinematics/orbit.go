package kinematics

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnbound reports orbital parameters that do not describe a bound orbit.
var ErrUnbound = errors.New("kinematics: orbit is not bound")

// Orbit advances a projected separation vector. Advance returns the ratio of
// the projected separation at t0+dt to the one at t0 and the rotation of the
// separation vector on the sky over the same interval.
type Orbit interface {
	Advance(dt float64) (scale, dTheta float64)
}

// Static is a fixed configuration.
type Static struct{}

func (Static) Advance(float64) (float64, float64) { return 1, 0 }

// Linear is the first-order expansion of orbital motion: the separation
// grows at W1·s per day and rotates at W2 radians per day. A separation that
// would shrink through zero yields NaN.
type Linear struct {
	W1, W2 float64
}

func (o Linear) Advance(dt float64) (float64, float64) {
	scale := 1 + o.W1*dt
	if scale <= 0 {
		return math.NaN(), math.NaN()
	}
	return scale, o.W2 * dt
}

// state is a position and velocity in units of the projected separation at
// t0, with the separation along x and z towards the observer.
type state struct {
	r, v Vec3
}

func (s state) project() (float64, float64) {
	return math.Hypot(s.r[0], s.r[1]), math.Atan2(s.r[1], s.r[0])
}

// Circular is a circular orbit matching the sky-plane velocity (W1, W2) and
// the line-of-sight velocity W3 of the secondary at t0, all in units of the
// projected separation per day. The line-of-sight offset follows from the
// velocity being perpendicular to the radius; with W3 = 0 and W1 ≠ 0 the
// orbit degenerates into uniform straight motion.
type Circular struct {
	W1, W2, W3 float64
}

func (o Circular) Advance(dt float64) (float64, float64) {
	if dt == 0 {
		return 1, 0
	}
	v := Vec3{o.W1, o.W2, o.W3}
	speed := v.Norm()
	if speed == 0 {
		return 1, 0
	}
	var r Vec3
	switch {
	case o.W3 != 0:
		r = Vec3{1, 0, -o.W1 / o.W3}
	case o.W1 == 0:
		r = Vec3{1, 0, 0}
	default:
		return state{r: Vec3{1, 0, 0}.Add(v.Scale(dt))}.project()
	}
	omega := speed / r.Norm()
	c, s := math.Cos(omega*dt), math.Sin(omega*dt)
	return state{r: r.Scale(c).Add(v.Scale(s / omega))}.project()
}

// Kepler is a general bound orbit. Besides the velocities of Circular it
// takes SzS, the line-of-sight offset of the secondary in units of the
// projected separation, and ArS, the semi-major axis over the current 3D
// separation. ArS must exceed 1/2 for the orbit to be bound.
type Kepler struct {
	W1, W2, W3 float64
	SzS, ArS   float64

	// derived by NewKepler
	a, e, n, m0 float64
	p, q        Vec3
}

const keplerIter = 50

// NewKepler converts the state at t0 into orbital elements.
func NewKepler(w1, w2, w3, szs, ars float64) (*Kepler, error) {
	k := &Kepler{W1: w1, W2: w2, W3: w3, SzS: szs, ArS: ars}
	for _, x := range []float64{w1, w2, w3, szs, ars} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("kinematics.NewKepler: non-finite parameter: %w", ErrUnbound)
		}
	}
	r := Vec3{1, 0, szs}
	v := Vec3{w1, w2, w3}
	rn := r.Norm()
	v2 := v.Dot(v)
	if v2 == 0 {
		k.n = 0
		return k, nil
	}
	if ars <= 0.5 {
		return nil, fmt.Errorf("kinematics.NewKepler: a/r=%g: %w", ars, ErrUnbound)
	}
	k.a = ars * rn
	mu := v2 / (2/rn - 1/k.a)

	// eccentricity vector e = (v²/μ − 1/r) r − (r·v/μ) v
	rv := r.Dot(v)
	ev := r.Scale(v2/mu - 1/rn).Sub(v.Scale(rv / mu))
	k.e = ev.Norm()
	if k.e >= 1 {
		return nil, fmt.Errorf("kinematics.NewKepler: e=%g: %w", k.e, ErrUnbound)
	}
	h := cross3(r, v)
	if h.Norm() == 0 {
		return nil, fmt.Errorf("kinematics.NewKepler: radial orbit: %w", ErrUnbound)
	}
	hh := h.Scale(1 / h.Norm())
	if k.e < 1e-12 {
		k.e = 0
		k.p = r.Scale(1 / rn)
	} else {
		k.p = ev.Scale(1 / k.e)
	}
	k.q = cross3(hh, k.p)
	k.n = math.Sqrt(mu / (k.a * k.a * k.a))

	// eccentric anomaly at t0 from the position in the perifocal frame
	b := k.a * math.Sqrt(1-k.e*k.e)
	e0 := math.Atan2(r.Dot(k.q)/b, r.Dot(k.p)/k.a+k.e)
	k.m0 = e0 - k.e*math.Sin(e0)
	return k, nil
}

func cross3(a, b Vec3) Vec3 {
	return Vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

// eccentricAnomaly solves E − e sin E = M by Newton iteration.
func eccentricAnomaly(m, e float64) float64 {
	m = math.Remainder(m, 2*math.Pi)
	x := m
	if e > 0.8 {
		x = math.Pi * math.Copysign(1, m)
	}
	for i := 0; i < keplerIter; i++ {
		f := x - e*math.Sin(x) - m
		dx := f / (1 - e*math.Cos(x))
		x -= dx
		if math.Abs(dx) < 1e-15 {
			break
		}
	}
	return x
}

func (k *Kepler) Advance(dt float64) (float64, float64) {
	if dt == 0 || k.n == 0 {
		return 1, 0
	}
	ea := eccentricAnomaly(k.m0+k.n*dt, k.e)
	x := k.a * (math.Cos(ea) - k.e)
	y := k.a * math.Sqrt(1-k.e*k.e) * math.Sin(ea)
	return state{r: k.p.Scale(x).Add(k.q.Scale(y))}.project()
}
