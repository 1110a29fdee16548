// core/contour/options.go
package contour

import (
	"math"

	"mlens-core/images"
)

// Options tunes a finite-source magnification. The zero value is usable:
// unset fields fall back to the defaults documented below.
type Options struct {
	Method images.Method

	// Accuracy goal on the magnification: stop when the error estimate is
	// below max(AbsTol, RelTol·A). Both zero selects AbsTol = 1e-2.
	AbsTol float64
	RelTol float64

	MinSamples int // initial boundary samples (default 32)
	MaxSamples int // hard cap on boundary samples per contour (default 20000)
	MaxDepth   int // maximum bisections of an initial interval (default 20)
	MaxAnnuli  int // cap on limb-darkening annuli (default 16)
}

const (
	defaultAbsTol     = 1e-2
	defaultMinSamples = 32
	defaultMaxSamples = 20000
	defaultMaxDepth   = 20
	defaultMaxAnnuli  = 16
)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.AbsTol <= 0 && o.RelTol <= 0 {
		o.AbsTol = defaultAbsTol
	}
	if o.AbsTol < 0 {
		o.AbsTol = 0
	}
	if o.RelTol < 0 {
		o.RelTol = 0
	}
	if o.MinSamples < 4 {
		o.MinSamples = defaultMinSamples
	}
	if o.MaxSamples <= 0 {
		o.MaxSamples = defaultMaxSamples
	}
	if o.MaxSamples < 2*o.MinSamples {
		o.MaxSamples = 2 * o.MinSamples
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.MaxAnnuli < 2 {
		o.MaxAnnuli = defaultMaxAnnuli
	}
	return o
}

// goal is the admissible absolute error for a magnification a.
func (o Options) goal(a float64) float64 {
	return math.Max(o.AbsTol, o.RelTol*math.Abs(a))
}

// Result is a finite-source magnification with its diagnostics.
type Result struct {
	Mag      float64
	Centroid complex128 // brightness-weighted image centroid (lens frame)
	Err      float64    // estimated absolute error on Mag

	// PrecisionMet is false when a depth, sample or annulus cap stopped the
	// refinement before the error goal was reached; Mag is still the best
	// available estimate.
	PrecisionMet bool

	Samples      int  // lens-equation solves on the boundary
	Annuli       int  // annuli used (0 for uniform sources)
	Failures     int  // samples whose image set failed the count test
	Fallbacks    int  // NoPoly solves that fell back to the polynomial
	Hexadecapole bool // value from the hexadecapole approximation
}

func (r *Result) absorb(o Result) {
	r.Samples += o.Samples
	r.Failures += o.Failures
	r.Fallbacks += o.Fallbacks
	if !o.PrecisionMet {
		r.PrecisionMet = false
	}
}
