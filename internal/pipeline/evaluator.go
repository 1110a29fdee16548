package pipeline

import "mlens-core/lightcurve"

// Evaluator is the minimal capability the pipeline needs.
// *lightcurve.Evaluator satisfies it.
type Evaluator interface {
	Kind() lightcurve.Kind
	Eval(t float64) lightcurve.Epoch
}
