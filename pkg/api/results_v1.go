// pkg/api/results_v1.go
package api

// EpochV1 is the stable JSON/JSONL/YAML schema for one light-curve epoch.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
// Channels the model does not produce, or that came out NaN, are omitted.
type EpochV1 struct {
	RunID        string   `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	T            float64  `json:"t" yaml:"t"`
	Mag          *float64 `json:"mag,omitempty" yaml:"mag,omitempty"`
	Y1           *float64 `json:"y1,omitempty" yaml:"y1,omitempty"`
	Y2           *float64 `json:"y2,omitempty" yaml:"y2,omitempty"`
	Y1S2         *float64 `json:"y1s2,omitempty" yaml:"y1s2,omitempty"`
	Y2S2         *float64 `json:"y2s2,omitempty" yaml:"y2s2,omitempty"`
	Sep          *float64 `json:"sep,omitempty" yaml:"sep,omitempty"`
	CentroidN    *float64 `json:"centroid_n,omitempty" yaml:"centroid_n,omitempty"`
	CentroidE    *float64 `json:"centroid_e,omitempty" yaml:"centroid_e,omitempty"`
	LensN        *float64 `json:"lens_n,omitempty" yaml:"lens_n,omitempty"`
	LensE        *float64 `json:"lens_e,omitempty" yaml:"lens_e,omitempty"`
	PrecisionMet bool     `json:"precision_met" yaml:"precision_met"`
	MagErr       float64  `json:"mag_err,omitempty" yaml:"mag_err,omitempty"`
	Samples      int      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// LightCurveV1 is a whole light curve. Columns lists the channels of the
// model in their conventional order, without the time column.
type LightCurveV1 struct {
	RunID   string    `json:"run_id" yaml:"run_id"`
	Model   string    `json:"model" yaml:"model"`
	Params  []float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Columns []string  `json:"columns" yaml:"columns"`
	Failed  int       `json:"failed" yaml:"failed"`
	Epochs  []EpochV1 `json:"epochs" yaml:"epochs"`
}

// MagV1 is a single magnification.
type MagV1 struct {
	RunID        string   `json:"run_id" yaml:"run_id"`
	Model        string   `json:"model" yaml:"model"`
	Mag          float64  `json:"mag" yaml:"mag"`
	Err          float64  `json:"err" yaml:"err"`
	PrecisionMet bool     `json:"precision_met" yaml:"precision_met"`
	Samples      int      `json:"samples,omitempty" yaml:"samples,omitempty"`
	CentroidX    float64  `json:"centroid_x" yaml:"centroid_x"`
	CentroidY    float64  `json:"centroid_y" yaml:"centroid_y"`
	Bands        []BandV1 `json:"bands,omitempty" yaml:"bands,omitempty"`
}

// BandV1 is the magnification for one limb-darkening coefficient of a
// batched call; the top-level MagV1 fields repeat the first band.
type BandV1 struct {
	LD           float64 `json:"ld" yaml:"ld"`
	Mag          float64 `json:"mag" yaml:"mag"`
	Err          float64 `json:"err" yaml:"err"`
	PrecisionMet bool    `json:"precision_met" yaml:"precision_met"`
}

// CurveV1 is a polyline in the lens plane.
type CurveV1 struct {
	Kind   string    `json:"kind" yaml:"kind"` // "caustic" | "critical" | "image"
	Index  int       `json:"index" yaml:"index"`
	Parity int       `json:"parity,omitempty" yaml:"parity,omitempty"`
	Closed bool      `json:"closed" yaml:"closed"`
	X      []float64 `json:"x" yaml:"x"`
	Y      []float64 `json:"y" yaml:"y"`
}

// CurvesV1 groups the curves of one lens configuration.
type CurvesV1 struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Lenses   int       `json:"lenses" yaml:"lenses"`
	Topology string    `json:"topology,omitempty" yaml:"topology,omitempty"`
	Curves   []CurveV1 `json:"curves" yaml:"curves"`
}

// TableInfoV1 summarises an ESPL grid file.
type TableInfoV1 struct {
	Path   string  `json:"path" yaml:"path"`
	ZMax   float64 `json:"z_max" yaml:"z_max"`
	ZN     int     `json:"z_n" yaml:"z_n"`
	RhoMin float64 `json:"rho_min" yaml:"rho_min"`
	RhoMax float64 `json:"rho_max" yaml:"rho_max"`
	RhoN   int     `json:"rho_n" yaml:"rho_n"`
}
