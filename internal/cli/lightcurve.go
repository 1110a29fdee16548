package cli

import (
	"github.com/spf13/cobra"

	"mlens-core/lightcurve"

	"mlens/internal/config"
	"mlens/internal/logging"
	"mlens/internal/pipeline"
	"mlens/internal/tables"
	"mlens/internal/writers"
)

func (c *CLI) newLightCurveCmd() *cobra.Command {
	job := config.DefaultJob()
	var t0Par float64
	cmd := &cobra.Command{
		Use:     "lightcurve [job.toml|job.yaml]",
		Aliases: []string{"lc"},
		Short:   "Evaluate a model over a series of epochs",
		Long: `Evaluate a model over a series of epochs. The model and epochs come from a
job file, from flags, or from both: flags that are set override the file.

Scale parameters (tE, rho, s, q, flux ratio, and u0 of plain pspl and espl)
are natural logarithms.
Models: ` + kindNames(),
		Example: `  mlens lightcurve --model binary --params 0,-2.3,0.1,0.5,-5,3.4,7550 --t-start 7500 --t-end 7600 --t-step 0.1
  mlens lightcurve job.toml -o jsonl`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			j := job
			if len(args) == 1 {
				fromFile, err := config.LoadJob(args[0])
				if err != nil {
					return err
				}
				j = overlayJob(cmd, fromFile, job)
			}
			if cmd.Flags().Changed("t0-par") {
				v := t0Par
				j.T0Par = &v
			}
			return c.runLightCurve(cmd, j)
		},
	}
	f := cmd.Flags()
	f.StringVar(&job.Model, "model", "", "model name")
	f.Float64SliceVar(&job.Params, "params", nil, "flat parameter vector")
	f.Float64SliceVar(&job.Times, "times", nil, "explicit epochs")
	f.Float64Var(&job.Start, "t-start", 0, "first epoch of a regular span")
	f.Float64Var(&job.End, "t-end", 0, "last epoch of a regular span")
	f.Float64Var(&job.Step, "t-step", 0, "epoch spacing of a regular span")
	f.StringVar(&job.Target, "target", "", `target coordinates, "ra dec" in decimal degrees`)
	f.Float64Var(&t0Par, "t0-par", 0, "parallax and orbit reference time (default: the model's t0)")
	f.StringVar(&job.TimeSystem, "time-system", job.TimeSystem, "epoch time system (hjd, jd)")
	f.StringVar(&job.Satellite, "satellite", "", "satellite ephemeris table (Horizons vectors)")
	f.Float64Var(&job.LD, "ld", 0, "linear limb-darkening coefficient")
	f.BoolVar(&job.Auto, "auto", false, "allow the hexadecapole approximation far from caustics")
	f.BoolVar(&job.SecondaryOff, "secondary-off", false, "report the first source alone in binary-source models")
	f.Float64Var(&job.MassLum, "mass-luminosity", job.MassLum, "exponent of L ∝ M^x for binary sources")
	f.Float64Var(&job.MassRadius, "mass-radius", job.MassRadius, "exponent of R ∝ M^x for binary sources")
	return cmd
}

func kindNames() string {
	s := ""
	for i, k := range lightcurve.Kinds() {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s
}

// overlayJob applies the flags the user set on top of a job file.
func overlayJob(cmd *cobra.Command, file, flags config.Job) config.Job {
	set := cmd.Flags().Changed
	if set("model") {
		file.Model = flags.Model
	}
	if set("params") {
		file.Params = flags.Params
	}
	if set("times") {
		file.Times = flags.Times
	}
	if set("t-start") {
		file.Start = flags.Start
	}
	if set("t-end") {
		file.End = flags.End
	}
	if set("t-step") {
		file.Step = flags.Step
	}
	if set("target") {
		file.Target = flags.Target
	}
	if set("time-system") {
		file.TimeSystem = flags.TimeSystem
	}
	if set("satellite") {
		file.Satellite = flags.Satellite
	}
	if set("ld") {
		file.LD = flags.LD
	}
	if set("auto") {
		file.Auto = flags.Auto
	}
	if set("secondary-off") {
		file.SecondaryOff = flags.SecondaryOff
	}
	if set("mass-luminosity") {
		file.MassLum = flags.MassLum
	}
	if set("mass-radius") {
		file.MassRadius = flags.MassRadius
	}
	return file
}

func (c *CLI) runLightCurve(cmd *cobra.Command, job config.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	k, _ := job.Kind()
	model, err := lightcurve.FromFlat(k, job.Params)
	if err != nil {
		return err
	}
	times, err := job.Epochs()
	if err != nil {
		return err
	}
	opt, err := job.Options()
	if err != nil {
		return err
	}
	opt.Contour = c.contourOptions()
	c.tables.Apply(&opt)
	if job.Satellite != "" {
		sat, err := tables.LoadEphemeris(job.Satellite)
		if err != nil {
			return err
		}
		opt.Satellite = sat
	}

	log := c.log.With(logging.F("model", k.String()))
	log.Debug("evaluating", logging.F("epochs", len(times)))
	res, err := pipeline.Generate(cmd.Context(), c.pipelineConfig(), model, times, opt)
	if err != nil {
		return err
	}
	c.rec.ObserveResult(res)

	failed := res.Failed()
	log.Info("light curve done", logging.F("epochs", res.Len()), logging.F("failed", failed))
	if failed > 0 {
		for i, st := range res.Status {
			if st.Err != nil {
				log.Warn("epoch failed", logging.F("t", res.T[i]), logging.F("err", st.Err.Error()))
				break
			}
		}
	}
	return c.write(writers.ToAPILightCurve(c.runID, job.Params, res))
}
