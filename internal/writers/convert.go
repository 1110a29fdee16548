package writers

import (
	"math"

	"mlens-core/caustic"
	"mlens-core/contour"
	"mlens-core/lightcurve"

	"mlens/pkg/api"
)

func opt(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ToAPIEpoch converts epoch i of res.
func ToAPIEpoch(res *lightcurve.Result, i int) api.EpochV1 {
	st := res.Status[i]
	e := api.EpochV1{
		T:            res.T[i],
		Mag:          opt(res.Mag[i]),
		Y1:           opt(res.Y1[i]),
		Y2:           opt(res.Y2[i]),
		Y1S2:         opt(res.Y1S2[i]),
		Y2S2:         opt(res.Y2S2[i]),
		Sep:          opt(res.Sep[i]),
		CentroidN:    opt(res.CentroidN[i]),
		CentroidE:    opt(res.CentroidE[i]),
		LensN:        opt(res.LensN[i]),
		LensE:        opt(res.LensE[i]),
		PrecisionMet: st.PrecisionMet,
		Samples:      st.Samples,
	}
	if !math.IsNaN(st.MagErr) && !math.IsInf(st.MagErr, 0) {
		e.MagErr = st.MagErr
	}
	if st.Err != nil {
		e.Error = st.Err.Error()
	}
	return e
}

// ToAPILightCurve converts a whole result.
func ToAPILightCurve(runID string, params []float64, res *lightcurve.Result) api.LightCurveV1 {
	lc := api.LightCurveV1{
		RunID:   runID,
		Model:   res.Kind.String(),
		Params:  params,
		Columns: res.Kind.ColumnNames(),
		Failed:  res.Failed(),
		Epochs:  make([]api.EpochV1, res.Len()),
	}
	for i := range lc.Epochs {
		lc.Epochs[i] = ToAPIEpoch(res, i)
	}
	return lc
}

// Value returns the named channel of e; ok is false when it is absent.
func Value(e api.EpochV1, name string) (v float64, ok bool) {
	var p *float64
	switch name {
	case "t":
		return e.T, true
	case "mag":
		p = e.Mag
	case "y1":
		p = e.Y1
	case "y2":
		p = e.Y2
	case "y1s2":
		p = e.Y1S2
	case "y2s2":
		p = e.Y2S2
	case "sep":
		p = e.Sep
	case "cn":
		p = e.CentroidN
	case "ce":
		p = e.CentroidE
	case "ln":
		p = e.LensN
	case "le":
		p = e.LensE
	}
	if p == nil {
		return math.NaN(), false
	}
	return *p, true
}

func toCurve(kind string, i int, xs, ys []float64) api.CurveV1 {
	return api.CurveV1{Kind: kind, Index: i, Closed: true, X: xs, Y: ys}
}

// ToAPICaustics converts a caustic set; topology may be empty for
// configurations other than binaries.
func ToAPICaustics(runID string, lenses int, topology string, set caustic.Set) api.CurvesV1 {
	out := api.CurvesV1{RunID: runID, Lenses: lenses, Topology: topology}
	for i, c := range set.Caustics {
		xs, ys := c.XY()
		out.Curves = append(out.Curves, toCurve("caustic", i, xs, ys))
	}
	for i, c := range set.CriticalCurves {
		xs, ys := c.XY()
		out.Curves = append(out.Curves, toCurve("critical", i, xs, ys))
	}
	return out
}

// ToAPIContours converts image contours.
func ToAPIContours(runID string, lenses int, cs []contour.Contour) api.CurvesV1 {
	out := api.CurvesV1{RunID: runID, Lenses: lenses, Curves: make([]api.CurveV1, len(cs))}
	for i, c := range cs {
		xs, ys := c.XY()
		cv := toCurve("image", i, xs, ys)
		cv.Parity, cv.Closed = c.Parity, c.Closed
		out.Curves[i] = cv
	}
	return out
}
