package lightcurve

import (
	"fmt"
	"math"

	"mlens-core/contour"
)

// Status carries the per-epoch diagnostics.
type Status struct {
	PrecisionMet bool
	Err          error   // set when the epoch could not be evaluated
	MagErr       float64 // estimated absolute error on Mag

	Samples      int
	Failures     int
	Fallbacks    int
	Hexadecapole bool
}

func (s *Status) absorb(r contour.Result) {
	if !r.PrecisionMet {
		s.PrecisionMet = false
	}
	s.MagErr += r.Err
	s.Samples += r.Samples
	s.Failures += r.Failures
	s.Fallbacks += r.Fallbacks
	s.Hexadecapole = s.Hexadecapole || r.Hexadecapole
}

// Epoch is the model evaluated at one time. Channels a model does not
// produce are NaN.
type Epoch struct {
	T          float64
	Mag        float64
	Y1, Y2     float64 // first source, lens frame
	Y1S2, Y2S2 float64 // second source, lens frame
	Sep        float64 // lens or source separation at T
	CentroidN  float64 // image centroid on the sky (mas)
	CentroidE  float64
	LensN      float64 // lens position on the sky (mas)
	LensE      float64
	Status     Status
}

func newEpoch(t float64) Epoch {
	nan := math.NaN()
	return Epoch{
		T: t, Mag: nan, Y1: nan, Y2: nan, Y1S2: nan, Y2S2: nan, Sep: nan,
		CentroidN: nan, CentroidE: nan, LensN: nan, LensE: nan,
		Status: Status{PrecisionMet: true},
	}
}

func (ep *Epoch) fail(err error) {
	ep.Mag = math.NaN()
	ep.Status.PrecisionMet = false
	if ep.Status.Err == nil {
		ep.Status.Err = err
	}
}

// Result holds parallel channels, one entry per input time and in the same
// order.
type Result struct {
	Kind      Kind
	T         []float64
	Mag       []float64
	Y1, Y2    []float64
	Y1S2      []float64
	Y2S2      []float64
	Sep       []float64
	CentroidN []float64
	CentroidE []float64
	LensN     []float64
	LensE     []float64
	Status    []Status
}

// NewResult allocates a result for n epochs.
func NewResult(k Kind, n int) *Result {
	mk := func() []float64 { return make([]float64, n) }
	return &Result{
		Kind: k, T: mk(), Mag: mk(), Y1: mk(), Y2: mk(), Y1S2: mk(), Y2S2: mk(), Sep: mk(),
		CentroidN: mk(), CentroidE: mk(), LensN: mk(), LensE: mk(),
		Status: make([]Status, n),
	}
}

// Len is the number of epochs.
func (r *Result) Len() int { return len(r.T) }

// Set stores epoch i. Distinct indices may be set concurrently.
func (r *Result) Set(i int, ep Epoch) {
	r.T[i] = ep.T
	r.Mag[i] = ep.Mag
	r.Y1[i], r.Y2[i] = ep.Y1, ep.Y2
	r.Y1S2[i], r.Y2S2[i] = ep.Y1S2, ep.Y2S2
	r.Sep[i] = ep.Sep
	r.CentroidN[i], r.CentroidE[i] = ep.CentroidN, ep.CentroidE
	r.LensN[i], r.LensE[i] = ep.LensN, ep.LensE
	r.Status[i] = ep.Status
}

// Column returns the named channel (see Kind.ColumnNames).
func (r *Result) Column(name string) ([]float64, error) {
	switch name {
	case "t":
		return r.T, nil
	case "mag":
		return r.Mag, nil
	case "y1":
		return r.Y1, nil
	case "y2":
		return r.Y2, nil
	case "y1s2":
		return r.Y1S2, nil
	case "y2s2":
		return r.Y2S2, nil
	case "sep":
		return r.Sep, nil
	case "cn":
		return r.CentroidN, nil
	case "ce":
		return r.CentroidE, nil
	case "ln":
		return r.LensN, nil
	case "le":
		return r.LensE, nil
	}
	return nil, fmt.Errorf("lightcurve: unknown column %q", name)
}

// Columns returns the channels of the result's model in their conventional
// order.
func (r *Result) Columns() [][]float64 {
	names := r.Kind.ColumnNames()
	out := make([][]float64, len(names))
	for i, n := range names {
		out[i], _ = r.Column(n)
	}
	return out
}

// Failed counts epochs with an error.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Status {
		if s.Err != nil {
			n++
		}
	}
	return n
}
