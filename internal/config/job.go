package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"mlens-core/kinematics"
	"mlens-core/lightcurve"
)

// Job describes one light-curve run: the model, its flat parameters and the
// epochs, plus the per-run options.
type Job struct {
	Model  string    `toml:"model" yaml:"model"`
	Params []float64 `toml:"params" yaml:"params"`

	// Times lists epochs explicitly; otherwise Start, End and Step span them.
	Times []float64 `toml:"times" yaml:"times"`
	Start float64   `toml:"t_start" yaml:"t_start"`
	End   float64   `toml:"t_end" yaml:"t_end"`
	Step  float64   `toml:"t_step" yaml:"t_step"`

	// Target is "ra dec" in decimal degrees.
	Target     string   `toml:"target" yaml:"target"`
	T0Par      *float64 `toml:"t0_par" yaml:"t0_par"`
	TimeSystem string   `toml:"time_system" yaml:"time_system"`
	Satellite  string   `toml:"satellite_table" yaml:"satellite_table"`

	LD           float64 `toml:"limb_darkening" yaml:"limb_darkening"`
	Auto         bool    `toml:"auto" yaml:"auto"`
	SecondaryOff bool    `toml:"secondary_off" yaml:"secondary_off"`
	MassLum      float64 `toml:"mass_luminosity" yaml:"mass_luminosity"`
	MassRadius   float64 `toml:"mass_radius" yaml:"mass_radius"`
}

// maxEpochs bounds spans so a typo in t_step cannot exhaust memory.
const maxEpochs = 10_000_000

// DefaultJob is the base that job files overlay.
func DefaultJob() Job {
	return Job{TimeSystem: kinematics.HJD.String(), MassLum: 4, MassRadius: 0.9}
}

// LoadJob reads a .toml, .yaml or .yml job file over DefaultJob.
func LoadJob(path string) (Job, error) {
	job := DefaultJob()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var raw Job
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Job{}, fmt.Errorf("config: job %s: %w", path, err)
		}
		overlayTOML(&job, raw, meta)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Job{}, fmt.Errorf("config: job %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &job); err != nil {
			return Job{}, fmt.Errorf("config: job %s: %w", path, err)
		}
	default:
		return Job{}, fmt.Errorf("config: job %s: unsupported extension: %w", path, ErrInvalid)
	}
	if err := job.Validate(); err != nil {
		return Job{}, fmt.Errorf("config: job %s: %w", path, err)
	}
	return job, nil
}

func overlayTOML(job *Job, raw Job, meta toml.MetaData) {
	if meta.IsDefined("model") {
		job.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("params") {
		job.Params = raw.Params
	}
	if meta.IsDefined("times") {
		job.Times = raw.Times
	}
	if meta.IsDefined("t_start") {
		job.Start = raw.Start
	}
	if meta.IsDefined("t_end") {
		job.End = raw.End
	}
	if meta.IsDefined("t_step") {
		job.Step = raw.Step
	}
	if meta.IsDefined("target") {
		job.Target = strings.TrimSpace(raw.Target)
	}
	if meta.IsDefined("t0_par") {
		job.T0Par = raw.T0Par
	}
	if meta.IsDefined("time_system") {
		job.TimeSystem = strings.TrimSpace(raw.TimeSystem)
	}
	if meta.IsDefined("satellite_table") {
		job.Satellite = strings.TrimSpace(raw.Satellite)
	}
	if meta.IsDefined("limb_darkening") {
		job.LD = raw.LD
	}
	if meta.IsDefined("auto") {
		job.Auto = raw.Auto
	}
	if meta.IsDefined("secondary_off") {
		job.SecondaryOff = raw.SecondaryOff
	}
	if meta.IsDefined("mass_luminosity") {
		job.MassLum = raw.MassLum
	}
	if meta.IsDefined("mass_radius") {
		job.MassRadius = raw.MassRadius
	}
}

// Validate checks the job without evaluating it.
func (j Job) Validate() error {
	k, err := lightcurve.ParseKind(j.Model)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	if n := k.NumParams(); n >= 0 && len(j.Params) != n {
		return fmt.Errorf("%v takes %d parameters, got %d: %w", k, n, len(j.Params), lightcurve.ErrParamLength)
	}
	if _, err := kinematics.ParseTimeSystem(j.TimeSystem); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	if j.Target != "" {
		if _, err := ParseTarget(j.Target); err != nil {
			return err
		}
	}
	if j.LD < 0 || j.LD > 1 {
		return fmt.Errorf("limb darkening %g outside [0,1]: %w", j.LD, ErrInvalid)
	}
	if !(j.MassLum > 0) {
		return fmt.Errorf("mass_luminosity %g: %w", j.MassLum, ErrInvalid)
	}
	_, err = j.Epochs()
	return err
}

// Kind is the parsed model kind.
func (j Job) Kind() (lightcurve.Kind, error) { return lightcurve.ParseKind(j.Model) }

// Epochs returns Times or, when empty, the span Start, Start+Step, ... ≤ End.
func (j Job) Epochs() ([]float64, error) {
	if len(j.Times) > 0 {
		return append([]float64(nil), j.Times...), nil
	}
	if !(j.Step > 0) || j.End < j.Start || math.IsNaN(j.Start) || math.IsInf(j.End, 0) {
		return nil, fmt.Errorf("no times and no valid span (start=%g end=%g step=%g): %w", j.Start, j.End, j.Step, ErrInvalid)
	}
	n := int(math.Floor((j.End-j.Start)/j.Step+1e-9)) + 1
	if n > maxEpochs {
		return nil, fmt.Errorf("span yields %d epochs (max %d): %w", n, maxEpochs, ErrInvalid)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = j.Start + float64(i)*j.Step
	}
	return out, nil
}

// Options converts the job's run options. Ephemerides and tables are the
// caller's.
func (j Job) Options() (lightcurve.Options, error) {
	ts, err := kinematics.ParseTimeSystem(j.TimeSystem)
	if err != nil {
		return lightcurve.Options{}, fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	opt := lightcurve.Options{
		LD:                 j.LD,
		Auto:               j.Auto,
		T0Par:              j.T0Par,
		Time:               ts,
		MassLum:            j.MassLum,
		MassRadius:         j.MassRadius,
		SecondarySourceOff: j.SecondaryOff,
	}
	if j.Target != "" {
		tg, err := ParseTarget(j.Target)
		if err != nil {
			return lightcurve.Options{}, err
		}
		opt.Target = &tg
	}
	return opt, nil
}
