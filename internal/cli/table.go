package cli

import (
	"time"

	"github.com/spf13/cobra"

	"mlens-core/espl"

	"mlens/internal/logging"
	"mlens/internal/pipeline"
	"mlens/internal/tables"
	"mlens/pkg/api"
)

func (c *CLI) newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Build or inspect ESPL magnification grids",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(c.newTableBuildCmd(), c.newTableInfoCmd())
	return cmd
}

func tableInfo(path string, s espl.GridSpec) api.TableInfoV1 {
	return api.TableInfoV1{Path: path, ZMax: s.ZMax, ZN: s.ZN, RhoMin: s.RhoMin, RhoMax: s.RhoMax, RhoN: s.RhoN}
}

func (c *CLI) newTableBuildCmd() *cobra.Command {
	spec := espl.DefaultGridSpec()
	var out string
	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Integrate an ESPL grid and save it",
		Example: `  mlens table build --out espl.tab --rho-n 61 --threads 8`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return usagef("--out is required")
			}
			start := time.Now()
			g, err := pipeline.BuildGrid(cmd.Context(), c.pipelineConfig(), spec, c.contourOptions())
			if err != nil {
				return err
			}
			if err := tables.SaveGrid(out, g); err != nil {
				return err
			}
			c.log.Info("grid saved",
				logging.F("path", out),
				logging.F("rows", spec.RhoN),
				logging.F("elapsed", time.Since(start).Round(time.Millisecond)))
			return c.write(tableInfo(out, g.Spec))
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "", "output file")
	f.Float64Var(&spec.ZMax, "z-max", spec.ZMax, "largest u/rho tabulated")
	f.IntVar(&spec.ZN, "z-n", spec.ZN, "points along u/rho")
	f.Float64Var(&spec.RhoMin, "rho-min", spec.RhoMin, "smallest source radius")
	f.Float64Var(&spec.RhoMax, "rho-max", spec.RhoMax, "largest source radius")
	f.IntVar(&spec.RhoN, "rho-n", spec.RhoN, "points along ln rho")
	return cmd
}

func (c *CLI) newTableInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <grid-file>",
		Short: "Print the layout of a saved grid",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := tables.LoadGrid(args[0])
			if err != nil {
				return err
			}
			return c.write(tableInfo(args[0], g.Spec))
		},
	}
}
