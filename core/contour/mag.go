package contour

import (
	"errors"
	"fmt"

	"mlens-core/images"
	"mlens-core/lens"
)

// ErrBuffer reports mismatched input and output lengths in a batched call.
var ErrBuffer = errors.New("contour: buffer length mismatch")

// Mag returns the magnification of src: exact for a point source, contour
// integration for a uniform disc and annuli for a limb-darkened one.
func Mag(cfg lens.Config, src lens.Source, opt Options) (Result, error) {
	if src.LD > 0 {
		return Dark(cfg, src, opt)
	}
	return Uniform(cfg, src, opt)
}

func binaryAt(s, q float64) (lens.Config, error) {
	cfg, err := lens.Binary(s, q)
	if err != nil {
		return lens.Config{}, fmt.Errorf("contour: binary(s=%g, q=%g): %w", s, q, err)
	}
	return cfg, nil
}

// BinaryMag0 is the point-source magnification of a binary lens with the
// source at (y1, y2) in the centre-of-mass frame.
func BinaryMag0(s, q, y1, y2 float64) (float64, error) {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return 0, err
	}
	return images.PointMag(cfg, complex(y1, y2), images.SinglePoly)
}

// BinaryMag is the uniform finite-source magnification of a binary lens.
func BinaryMag(s, q, y1, y2, rho float64, opt Options) (Result, error) {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return Result{}, err
	}
	return Uniform(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, opt)
}

// BinaryMagDark is BinaryMag for a source with linear limb darkening a1.
func BinaryMagDark(s, q, y1, y2, rho, a1 float64, opt Options) (Result, error) {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return Result{}, err
	}
	return Mag(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho, LD: a1}, opt)
}

// BinaryMag2 chooses between the hexadecapole approximation and BinaryMag.
func BinaryMag2(s, q, y1, y2, rho float64, opt Options) (Result, error) {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return Result{}, err
	}
	return Auto(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, opt)
}

// MultiMag0 is the point-source magnification of an arbitrary lens set.
func MultiMag0(cfg lens.Config, y1, y2 float64, opt Options) (float64, error) {
	return images.PointMag(cfg, complex(y1, y2), opt.Method)
}

func MultiMag(cfg lens.Config, y1, y2, rho float64, opt Options) (Result, error) {
	return Uniform(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, opt)
}

func MultiMagDark(cfg lens.Config, y1, y2, rho, a1 float64, opt Options) (Result, error) {
	return Mag(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho, LD: a1}, opt)
}

func MultiMag2(cfg lens.Config, y1, y2, rho float64, opt Options) (Result, error) {
	return Auto(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, opt)
}

// MagMultiDark evaluates one source for several linear limb-darkening
// coefficients, as for a set of photometric bands, writing one result per
// coefficient into out. The uniform-disc rings are integrated once and shared
// by every coefficient; refinement stops when all of them meet the goal.
func MagMultiDark(cfg lens.Config, y1, y2, rho float64, a1s []float64, opt Options, out []Result) error {
	if len(out) != len(a1s) {
		return fmt.Errorf("contour.MagMultiDark: %d coefficients, %d results: %w", len(a1s), len(out), ErrBuffer)
	}
	src := lens.Source{Pos: complex(y1, y2), Radius: rho}
	for _, a := range a1s {
		src.LD = a
		if err := src.Validate(); err != nil {
			return fmt.Errorf("contour.MagMultiDark: %w", err)
		}
	}
	if cfg.N() == 0 {
		return lens.ErrEmpty
	}
	if len(a1s) == 0 {
		return nil
	}
	if src.Point() {
		r, err := pointResult(cfg, src.Pos, opt)
		for i := range out {
			out[i] = r
		}
		return err
	}
	copy(out, darkBatch(cfg, src, a1s, opt.withDefaults()))
	return nil
}

// BinaryMagMultiDark is MagMultiDark for a binary lens.
func BinaryMagMultiDark(s, q, y1, y2, rho float64, a1s []float64, opt Options, out []Result) error {
	cfg, err := binaryAt(s, q)
	if err != nil {
		return err
	}
	return MagMultiDark(cfg, y1, y2, rho, a1s, opt, out)
}
