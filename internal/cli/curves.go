package cli

import (
	"github.com/spf13/cobra"

	"mlens-core/caustic"
	"mlens-core/contour"
	"mlens-core/lens"

	"mlens/internal/logging"
	"mlens/internal/writers"
)

func (c *CLI) newCausticsCmd() *cobra.Command {
	var (
		lf     lensFlags
		points int
	)
	cmd := &cobra.Command{
		Use:   "caustics",
		Short: "Critical curves and caustics of a lens configuration",
		Example: `  mlens caustics --s 1 --q 0.1
  mlens caustics --geometry 0,0,1,1,0,0.1,0.5,0.5,0.01 -o json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, model, topo, err := lf.build()
			if err != nil {
				return err
			}
			set, err := caustic.Multi(cfg, caustic.Options{Points: points})
			if err != nil {
				return err
			}
			c.log.Info("caustics traced",
				logging.F("model", model),
				logging.F("curves", len(set.Caustics)),
				logging.F("topology", topo))
			return c.write(writers.ToAPICaustics(c.runID, cfg.N(), topo, set))
		},
	}
	lf.register(cmd)
	cmd.Flags().IntVar(&points, "points", 256, "phase steps per critical curve")
	return cmd
}

func (c *CLI) newContoursCmd() *cobra.Command {
	var (
		lf     lensFlags
		single bool
		y1, y2 float64
		rho    float64
	)
	cmd := &cobra.Command{
		Use:     "contours",
		Short:   "Image contours of a uniform source",
		Example: `  mlens contours --s 1 --q 0.1 --y1 0.05 --rho 0.1`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				cfg lens.Config
				err error
			)
			if single {
				cfg = lens.Single()
			} else if cfg, _, _, err = lf.build(); err != nil {
				return err
			}
			if !(rho > 0) {
				return usagef("--rho must be positive, got %g", rho)
			}
			cs, err := contour.Contours(cfg, lens.Source{Pos: complex(y1, y2), Radius: rho}, c.contourOptions())
			if err != nil {
				return err
			}
			open := 0
			for _, k := range cs {
				if !k.Closed {
					open++
				}
			}
			if open > 0 {
				c.log.Warn("some contours could not be closed", logging.F("open", open), logging.F("total", len(cs)))
			}
			return c.write(writers.ToAPIContours(c.runID, cfg.N(), cs))
		},
	}
	lf.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&single, "single", false, "single lens (ignores --s/--q/--geometry)")
	f.Float64Var(&y1, "y1", 0, "source centre, first coordinate")
	f.Float64Var(&y2, "y2", 0, "source centre, second coordinate")
	f.Float64Var(&rho, "rho", 0.1, "source radius in Einstein radii")
	return cmd
}
