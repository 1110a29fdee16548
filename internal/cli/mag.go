package cli

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/spf13/cobra"

	"mlens-core/contour"
	"mlens-core/espl"
	"mlens-core/lens"
	"mlens-core/lightcurve"

	"mlens/internal/logging"
	"mlens/pkg/api"
)

type magFlags struct {
	lens   lensFlags
	single bool
	y1, y2 float64
	rho    float64
	ld     []float64
	auto   bool
}

func (c *CLI) newMagCmd() *cobra.Command {
	var mf magFlags
	cmd := &cobra.Command{
		Use:   "mag",
		Short: "Magnification of one source position",
		Example: `  mlens mag --s 0.9 --q 0.1 --y1 0.05 --y2 0.01 --rho 0.01
  mlens mag --single --y1 0.1 --rho 0.05 --ld 0.5
  mlens mag --s 0.9 --q 0.1 --y1 0.1 --y2 -0.2 --rho 0.03 --ld 0.1,0.2,0.3
  mlens mag --geometry 0,0,1,1,0,0.01,0.8,0.3,0.001 --y1 0.2 --rho 1e-3`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMag(mf)
		},
	}
	mf.lens.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&mf.single, "single", false, "single lens (ignores --s/--q/--geometry)")
	f.Float64Var(&mf.y1, "y1", 0, "source position, first coordinate")
	f.Float64Var(&mf.y2, "y2", 0, "source position, second coordinate")
	f.Float64Var(&mf.rho, "rho", 0, "source radius in Einstein radii (0 = point source)")
	f.Float64SliceVar(&mf.ld, "ld", nil, "linear limb-darkening coefficient; several values share one integration")
	f.BoolVar(&mf.auto, "auto", false, "allow the hexadecapole approximation far from caustics")
	return cmd
}

func (c *CLI) runMag(mf magFlags) error {
	var (
		cfg   lens.Config
		model = "single"
		err   error
	)
	if mf.single {
		cfg = lens.Single()
	} else if cfg, model, _, err = mf.lens.build(); err != nil {
		return err
	}
	src := lens.Source{Pos: complex(mf.y1, mf.y2), Radius: mf.rho}
	for _, a := range mf.ld {
		src.LD = a
		if err := src.Validate(); err != nil {
			return usagef("%v", err)
		}
	}

	var res []contour.Result
	if len(mf.ld) > 1 {
		res = make([]contour.Result, len(mf.ld))
		err = contour.MagMultiDark(cfg, mf.y1, mf.y2, mf.rho, mf.ld, c.contourOptions(), res)
	} else {
		var r contour.Result
		r, err = c.magnify(cfg, src, mf.single, mf.auto)
		res = []contour.Result{r}
	}
	if err != nil {
		return fmt.Errorf("mag: %w", err)
	}
	for _, r := range res {
		c.rec.Observe(model, lightcurve.Status{
			PrecisionMet: r.PrecisionMet,
			MagErr:       r.Err,
			Samples:      r.Samples,
			Failures:     r.Failures,
			Fallbacks:    r.Fallbacks,
			Hexadecapole: r.Hexadecapole,
		})
		if math.IsNaN(r.Mag) || math.IsInf(r.Mag, 0) {
			return fmt.Errorf("mag: magnification %g at y=(%g, %g)", r.Mag, mf.y1, mf.y2)
		}
		if !r.PrecisionMet {
			c.log.Warn("accuracy goal not met", logging.F("err", r.Err), logging.F("samples", r.Samples))
		}
	}

	out := api.MagV1{
		RunID:        c.runID,
		Model:        model,
		Mag:          res[0].Mag,
		Err:          res[0].Err,
		PrecisionMet: res[0].PrecisionMet,
		Samples:      res[0].Samples,
		CentroidX:    real(res[0].Centroid),
		CentroidY:    imag(res[0].Centroid),
	}
	if len(res) > 1 {
		for i, r := range res {
			out.Bands = append(out.Bands, api.BandV1{LD: mf.ld[i], Mag: r.Mag, Err: r.Err, PrecisionMet: r.PrecisionMet})
		}
	}
	return c.write(out)
}

// magnify prefers the ESPL grid for single extended sources when one is
// loaded and covers the radius.
func (c *CLI) magnify(cfg lens.Config, src lens.Source, single, auto bool) (contour.Result, error) {
	if single && src.Radius > 0 {
		if tab, err := c.tables.Table(); err == nil {
			a, err := tab.Mag(cmplx.Abs(src.Pos), src.Radius, src.LD)
			switch {
			case err == nil:
				return contour.Result{Mag: a, PrecisionMet: true}, nil
			case !errors.Is(err, espl.ErrOutOfRange):
				return contour.Result{}, err
			}
			c.log.Debug("outside the ESPL grid, integrating", logging.F("rho", src.Radius))
		}
	}
	if auto {
		return contour.Auto(cfg, src, c.contourOptions())
	}
	return contour.Mag(cfg, src, c.contourOptions())
}
