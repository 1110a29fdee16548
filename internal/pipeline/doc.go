// Package pipeline fans light-curve epochs and table rows out to a bounded
// set of goroutines.
//
// The only contract to implement is Evaluator (Eval). Results are written
// by index, so output never depends on scheduling.
package pipeline
