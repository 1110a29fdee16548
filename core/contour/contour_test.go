package contour

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"mlens-core/images"
	"mlens-core/lens"
)

func triple(t *testing.T) lens.Config {
	t.Helper()
	cfg, err := lens.FromGeometry([]float64{0, 0, 1, 0.5, 0.1, 0.2, 0.7, -0.3, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestUniform_SingleLens(t *testing.T) {
	tests := []struct {
		name string
		pos  complex128
		rho  float64
		want float64
		tol  float64
	}{
		{"offset", 0.2, 0.05, 5.115264209713242, 2e-5},
		{"centred", 0, 0.1, math.Sqrt(1 + 4/0.01), 1e-5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Uniform(lens.Single(), lens.Source{Pos: tc.pos, Radius: tc.rho}, Options{AbsTol: 1e-6})
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(r.Mag-tc.want) > tc.tol*tc.want {
				t.Fatalf("Mag=%.10f want %.10f (err %g, %d samples)", r.Mag, tc.want, r.Err, r.Samples)
			}
			if !r.PrecisionMet {
				t.Fatalf("precision not met with %d samples", r.Samples)
			}
		})
	}
}

func TestBinary_Reference(t *testing.T) {
	const s, q, y1, y2, rho = 0.9, 0.1, 0.1, -0.2, 0.03

	m0, err := BinaryMag0(s, q, y1, y2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m0-3.637365075053435) > 1e-9 {
		t.Fatalf("BinaryMag0=%.12f", m0)
	}

	m, err := BinaryMag(s, q, y1, y2, rho, Options{AbsTol: 1e-4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.Mag-3.644289742581571) > 2e-4 {
		t.Fatalf("BinaryMag=%.10f (err %g)", m.Mag, m.Err)
	}

	m2, err := BinaryMag2(s, q, y1, y2, rho, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !m2.Hexadecapole {
		t.Fatalf("expected the hexadecapole path away from caustics")
	}
	if math.Abs(m2.Mag-3.644294615355848) > 1e-3 {
		t.Fatalf("BinaryMag2=%.10f", m2.Mag)
	}
	if !(m0 < m.Mag && m0 < m2.Mag) {
		t.Fatalf("point %.8f should be below finite %.8f / %.8f", m0, m.Mag, m2.Mag)
	}
}

func TestMag_DarkeningOrdering(t *testing.T) {
	b, err := lens.Binary(0.9, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		cfg  lens.Config
		pos  complex128
		rho  float64
	}{
		{"single", lens.Single(), 0.2, 0.05},
		{"binary", b, complex(0.1, -0.2), 0.03},
		{"triple", triple(t), complex(-0.1, 0.2), 0.05},
	}
	opt := Options{AbsTol: 1e-5}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Mag(tc.cfg, lens.Source{Pos: tc.pos}, opt)
			if err != nil {
				t.Fatal(err)
			}
			u, err := Mag(tc.cfg, lens.Source{Pos: tc.pos, Radius: tc.rho}, opt)
			if err != nil {
				t.Fatal(err)
			}
			d, err := Mag(tc.cfg, lens.Source{Pos: tc.pos, Radius: tc.rho, LD: 0.6}, opt)
			if err != nil {
				t.Fatal(err)
			}
			if d.Annuli < 2 {
				t.Fatalf("darkened source used %d annuli", d.Annuli)
			}
			if !(p.Mag < d.Mag && d.Mag < u.Mag) {
				t.Fatalf("ordering broken: point %.8f dark %.8f uniform %.8f", p.Mag, d.Mag, u.Mag)
			}
		})
	}
}

func TestMulti_Triple(t *testing.T) {
	cfg := triple(t)
	m0, err := MultiMag0(cfg, -0.1, 0.2, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []images.Method{images.SinglePoly, images.MultiPoly, images.NoPoly} {
		t.Run(m.String(), func(t *testing.T) {
			r, err := MultiMag(cfg, -0.1, 0.2, 0.05, Options{Method: m, AbsTol: 1e-5})
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(r.Mag-2.48602) > 1e-4 {
				t.Fatalf("MultiMag=%.8f", r.Mag)
			}
			if r.Mag <= m0 {
				t.Fatalf("finite %.8f not above point %.8f", r.Mag, m0)
			}
		})
	}
	a, err := MultiMag2(cfg, -0.1, 0.2, 0.05, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a.Mag-2.48602) > 1e-3 {
		t.Fatalf("MultiMag2=%.8f", a.Mag)
	}
}

// Masses 1, 0.7 and 0.2 at the origin, (0.5, 0.1) and (-0.3, 0.2).
func TestMulti_ReferenceLayout(t *testing.T) {
	cfg, err := lens.FromGeometry([]float64{0, 0, 1, 0.5, 0.1, 0.7, -0.3, 0.2, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []images.Method{images.SinglePoly, images.MultiPoly, images.NoPoly} {
		m0, err := MultiMag0(cfg, -0.1, 0.2, Options{Method: m})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(m0-3.335165808307957) > 1e-8 {
			t.Errorf("%v: MultiMag0=%.12f, want 3.335165808308", m, m0)
		}
	}
	cs, err := Contours(cfg, lens.Source{Pos: complex(-0.1, 0.2), Radius: 0.05}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 4 {
		t.Fatalf("got %d contours, want 4", len(cs))
	}
}

func TestUniform_Idempotent(t *testing.T) {
	b, err := lens.Binary(1.0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	src := lens.Source{Pos: complex(0.05, 0.0), Radius: 0.01, LD: 0.4}
	r1, err := Mag(b, src, Options{RelTol: 1e-4})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Mag(b, src, Options{RelTol: 1e-4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Float64bits(r1.Mag) != math.Float64bits(r2.Mag) || r1.Centroid != r2.Centroid || r1.Samples != r2.Samples {
		t.Fatalf("repeated call differs: %+v vs %+v", r1, r2)
	}
}

func TestUniform_SampleCap(t *testing.T) {
	b, err := lens.Binary(0.9, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Uniform(b, lens.Source{Pos: complex(0.1, -0.2), Radius: 0.03}, Options{AbsTol: 1e-12, MinSamples: 8, MaxSamples: 16})
	if err != nil {
		t.Fatal(err)
	}
	if r.PrecisionMet {
		t.Fatalf("precision reported met with %d samples", r.Samples)
	}
	if math.IsNaN(r.Mag) || math.Abs(r.Mag-3.6443) > 0.05 {
		t.Fatalf("best estimate %.6f", r.Mag)
	}
}

func TestUniform_CausticCrossing(t *testing.T) {
	b, err := lens.Binary(1.0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	// the disc straddles the resonant caustic
	src := lens.Source{Pos: complex(-0.05, 0.02), Radius: 0.05}
	lo, err := Uniform(b, src, Options{AbsTol: 1e-3})
	if err != nil {
		t.Fatal(err)
	}
	hi, err := Uniform(b, src, Options{AbsTol: 1e-6})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lo.Mag-hi.Mag) > 2e-3 {
		t.Fatalf("coarse %.8f fine %.8f", lo.Mag, hi.Mag)
	}
	if cmplx.IsNaN(hi.Centroid) {
		t.Fatalf("centroid is NaN")
	}
}

func TestBinaryMagMultiDark(t *testing.T) {
	a1s := []float64{0.1, 0.2, 0.3}
	opt := Options{AbsTol: 1e-4}
	out := make([]Result, len(a1s))
	if err := BinaryMagMultiDark(0.9, 0.1, 0.1, -0.2, 0.03, a1s, opt, out); err != nil {
		t.Fatal(err)
	}
	p, err := BinaryMag0(0.9, 0.1, 0.1, -0.2)
	if err != nil {
		t.Fatal(err)
	}
	u, err := BinaryMag(0.9, 0.1, 0.1, -0.2, 0.03, opt)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range out {
		if math.IsNaN(r.Mag) || math.IsInf(r.Mag, 0) {
			t.Fatalf("a1=%g: magnification %g", a1s[i], r.Mag)
		}
		if !(p < r.Mag && r.Mag < u.Mag+opt.AbsTol) {
			t.Fatalf("a1=%g: %.8f not between point %.8f and uniform %.8f", a1s[i], r.Mag, p, u.Mag)
		}
		if i > 0 && r.Mag >= out[i-1].Mag {
			t.Fatalf("darker limb should lower the magnification: %v", out)
		}
		if r.Samples != out[0].Samples || r.Annuli != out[0].Annuli {
			t.Fatalf("coefficients did not share rings: %+v vs %+v", r, out[0])
		}
		one, err := BinaryMagDark(0.9, 0.1, 0.1, -0.2, 0.03, a1s[i], opt)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(one.Mag-r.Mag) > 2e-4 {
			t.Errorf("a1=%g: batched %.8f single %.8f", a1s[i], r.Mag, one.Mag)
		}
	}
}

func TestMagMultiDark_Errors(t *testing.T) {
	a1s := []float64{0.1, 0.2, 0.3}
	out := make([]Result, len(a1s))
	if err := MagMultiDark(lens.Single(), 0.2, 0, 0.05, a1s, Options{}, out[:2]); !errors.Is(err, ErrBuffer) {
		t.Fatalf("expected ErrBuffer, got %v", err)
	}
	if err := MagMultiDark(lens.Single(), 0.2, 0, 0.05, []float64{0.1, 1.5}, Options{}, out[:2]); !errors.Is(err, lens.ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if err := MagMultiDark(lens.Single(), 0.2, 0, 0, a1s, Options{}, out); err != nil {
		t.Fatal(err)
	}
	if out[0].Mag != out[2].Mag || out[0].Annuli != 0 {
		t.Fatalf("point source should ignore darkening: %+v", out)
	}
}

func TestContours(t *testing.T) {
	t.Run("binary", func(t *testing.T) {
		cs, err := ImageContours(0.9, 0.1, 0.1, -0.2, 0.03)
		if err != nil {
			t.Fatal(err)
		}
		if len(cs) != 3 {
			t.Fatalf("got %d contours, want 3", len(cs))
		}
		for _, c := range cs {
			xs, ys := c.XY()
			if len(xs) != len(ys) || len(xs) < 4 || !c.Closed {
				t.Fatalf("bad contour: %d/%d points closed=%v", len(xs), len(ys), c.Closed)
			}
		}
	})
	t.Run("triple", func(t *testing.T) {
		cs, err := Contours(triple(t), lens.Source{Pos: complex(-0.1, 0.2), Radius: 0.05}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if len(cs) != 4 {
			t.Fatalf("got %d contours, want 4", len(cs))
		}
	})
	t.Run("caustic crossing joins images", func(t *testing.T) {
		b, err := lens.Binary(1.0, 0.1)
		if err != nil {
			t.Fatal(err)
		}
		cs, err := Contours(b, lens.Source{Pos: complex(-0.05, 0.02), Radius: 0.05}, Options{AbsTol: 1e-4})
		if err != nil {
			t.Fatal(err)
		}
		if len(cs) != 3 {
			t.Fatalf("got %d contours, want 3", len(cs))
		}
		for _, c := range cs {
			if !c.Closed {
				t.Fatalf("open contour with %d points", len(c.Points))
			}
		}
	})
	t.Run("point source", func(t *testing.T) {
		if _, err := Contours(lens.Single(), lens.Source{Pos: 0.1}, Options{}); !errors.Is(err, lens.ErrSource) {
			t.Fatalf("expected ErrSource, got %v", err)
		}
	})
}

func TestInvalidInput(t *testing.T) {
	if _, err := Mag(lens.Config{}, lens.Source{Pos: 0.1, Radius: 0.1}, Options{}); !errors.Is(err, lens.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Mag(lens.Single(), lens.Source{Pos: 0.1, Radius: -1}, Options{}); !errors.Is(err, lens.ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if _, err := BinaryMag(0.9, -1, 0, 0, 0.1, Options{}); err == nil {
		t.Fatalf("negative mass ratio accepted")
	}
}
