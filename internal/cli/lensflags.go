package cli

import (
	"github.com/spf13/cobra"

	"mlens-core/caustic"
	"mlens-core/lens"
)

// lensFlags selects a binary (--s, --q) or an arbitrary lens set
// (--geometry x1,y1,m1,x2,y2,m2,...).
type lensFlags struct {
	s, q     float64
	geometry []float64
}

func (lf *lensFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&lf.s, "s", 1, "binary separation in Einstein radii")
	f.Float64Var(&lf.q, "q", 1, "binary mass ratio m2/m1")
	f.Float64SliceVar(&lf.geometry, "geometry", nil, "lens set as x,y,m triples (overrides --s/--q)")
}

// build returns the lens configuration, its model label and, for binaries,
// the caustic topology.
func (lf *lensFlags) build() (cfg lens.Config, model, topology string, err error) {
	if len(lf.geometry) > 0 {
		cfg, err = lens.FromGeometry(lf.geometry)
		if err != nil {
			return lens.Config{}, "", "", usagef("--geometry: %v", err)
		}
		return cfg, "multi", "", nil
	}
	cfg, err = lens.Binary(lf.s, lf.q)
	if err != nil {
		return lens.Config{}, "", "", usagef("--s/--q: %v", err)
	}
	return cfg, "binary", caustic.TopologyOf(lf.s, lf.q).String(), nil
}
