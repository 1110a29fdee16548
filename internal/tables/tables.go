// Package tables loads the read-only lookup data used by the light-curve
// generator: ESPL magnification grids and Sun or satellite ephemerides.
//
// A Context is filled once, validated, and then shared by every worker.
package tables

import (
	"errors"
	"fmt"

	"mlens-core/espl"
	"mlens-core/kinematics"
	"mlens-core/lightcurve"
)

var (
	// ErrNotLoaded reports a lookup on a table that was never loaded.
	ErrNotLoaded = errors.New("tables: not loaded")
	// ErrFormat reports a malformed table file.
	ErrFormat = errors.New("tables: malformed table")
)

// Paths names the files a Context loads. Empty entries are skipped.
type Paths struct {
	ESPL      string
	Sun       string
	Satellite string
}

// Context holds the loaded tables.
type Context struct {
	ESPL      *espl.Grid
	Sun       kinematics.Ephemeris
	Satellite kinematics.Ephemeris
}

// Load reads every named file and validates the result.
func Load(p Paths) (*Context, error) {
	c := &Context{}
	if p.ESPL != "" {
		g, err := LoadGrid(p.ESPL)
		if err != nil {
			return nil, err
		}
		c.ESPL = g
	}
	if p.Sun != "" {
		e, err := LoadEphemeris(p.Sun)
		if err != nil {
			return nil, err
		}
		c.Sun = e
	}
	if p.Satellite != "" {
		e, err := LoadEphemeris(p.Satellite)
		if err != nil {
			return nil, err
		}
		c.Satellite = e
	}
	return c, c.Validate()
}

// Validate checks whatever is loaded.
func (c *Context) Validate() error {
	if c == nil {
		return nil
	}
	if c.ESPL != nil {
		if err := c.ESPL.Validate(); err != nil {
			return fmt.Errorf("tables: espl: %w", err)
		}
	}
	for _, e := range []kinematics.Ephemeris{c.Sun, c.Satellite} {
		if t, ok := e.(*Ephemeris); ok {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("tables: %s: %w", t.label(), err)
			}
		}
	}
	return nil
}

// Table returns the ESPL grid or ErrNotLoaded.
func (c *Context) Table() (espl.Table, error) {
	if c == nil || c.ESPL == nil {
		return nil, fmt.Errorf("tables: espl grid: %w", ErrNotLoaded)
	}
	return c.ESPL, nil
}

// Apply copies the loaded tables into opt. Unloaded tables leave opt alone,
// so the built-in Sun model and direct integration stay in effect.
func (c *Context) Apply(opt *lightcurve.Options) {
	if c == nil {
		return
	}
	if c.ESPL != nil {
		opt.Table = c.ESPL
	}
	if c.Sun != nil {
		opt.Sun = c.Sun
	}
	if c.Satellite != nil {
		opt.Satellite = c.Satellite
	}
}
