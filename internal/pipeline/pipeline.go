package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"mlens-core/contour"
	"mlens-core/espl"
	"mlens-core/lightcurve"

	"mlens/internal/logging"
)

// Config controls the fan-out.
type Config struct {
	Threads int            // concurrent goroutines; <1 selects GOMAXPROCS
	Chunk   int            // epochs per task; <1 selects 64
	Log     logging.Logger // nil discards
}

const defaultChunk = 64

func (c Config) normalized() Config {
	if c.Threads < 1 {
		c.Threads = runtime.GOMAXPROCS(0)
	}
	if c.Chunk < 1 {
		c.Chunk = defaultChunk
	}
	if c.Log == nil {
		c.Log = logging.Discard()
	}
	return c
}

// group is an errgroup whose tasks turn panics into errors.
type group struct {
	g   *errgroup.Group
	log logging.Logger
}

func newGroup(ctx context.Context, cfg Config) (*group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	return &group{g: g, log: cfg.Log}, ctx
}

func (sg *group) Go(name string, fn func() error) {
	sg.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.log.Error("task panicked",
					logging.F("task", name),
					logging.F("panic", r),
					logging.F("stack", string(debug.Stack())))
				err = fmt.Errorf("pipeline: %s: panic: %v", name, r)
			}
		}()
		return fn()
	})
}

func (sg *group) Wait() error { return sg.g.Wait() }

// Evaluate runs ev over times and stores epoch i at index i. It stops
// between epochs when ctx is done and returns ctx's error.
func Evaluate(ctx context.Context, cfg Config, ev Evaluator, times []float64) (*lightcurve.Result, error) {
	cfg = cfg.normalized()
	res := lightcurve.NewResult(ev.Kind(), len(times))
	g, gctx := newGroup(ctx, cfg)

	for lo := 0; lo < len(times); lo += cfg.Chunk {
		lo := lo // per-iteration copy for go < 1.22 loop semantics
		hi := min(lo+cfg.Chunk, len(times))
		if gctx.Err() != nil {
			break
		}
		g.Go(fmt.Sprintf("epochs[%d:%d]", lo, hi), func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				res.Set(i, ev.Eval(times[i]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg.Log.Debug("epochs evaluated",
		logging.F("model", ev.Kind().String()),
		logging.F("epochs", len(times)),
		logging.F("threads", cfg.Threads))
	return res, nil
}

// Generate prepares m and evaluates it like Evaluate.
func Generate(ctx context.Context, cfg Config, m lightcurve.Model, times []float64, opt lightcurve.Options) (*lightcurve.Result, error) {
	ev, err := lightcurve.Prepare(m, opt)
	if err != nil {
		return nil, err
	}
	return Evaluate(ctx, cfg, ev, times)
}

// BuildGrid fills the rows of an ESPL grid concurrently.
func BuildGrid(ctx context.Context, cfg Config, spec espl.GridSpec, opt contour.Options) (*espl.Grid, error) {
	cfg = cfg.normalized()
	grid, err := espl.NewGrid(spec)
	if err != nil {
		return nil, err
	}
	g, gctx := newGroup(ctx, cfg)
	for i := 0; i < spec.RhoN; i++ {
		i := i // per-iteration copy for go < 1.22 loop semantics
		if gctx.Err() != nil {
			break
		}
		g.Go(fmt.Sprintf("row %d", i), func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return grid.FillRow(i, opt)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg.Log.Debug("espl grid built", logging.F("rows", spec.RhoN), logging.F("cols", spec.ZN))
	return grid, grid.Validate()
}
