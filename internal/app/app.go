// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"mlens-core/espl"
	"mlens-core/kinematics"
	"mlens-core/lens"
	"mlens-core/lightcurve"

	"mlens/internal/cli"
	"mlens/internal/config"
	"mlens/internal/tables"
	"mlens/internal/writers"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2   // bad flags, settings, job or model parameters
	ExitRuntime  = 3   // evaluation or I/O failure
	ExitCanceled = 130 // interrupted
)

// inputErrors are the sentinels that mean the user asked for something
// invalid rather than the run going wrong.
var inputErrors = []error{
	cli.ErrUsage,
	config.ErrInvalid,
	lightcurve.ErrParamLength,
	lightcurve.ErrModel,
	kinematics.ErrTarget,
	kinematics.ErrUnbound,
	lens.ErrEmpty,
	lens.ErrMassSum,
	lens.ErrMass,
	lens.ErrGeometry,
	lens.ErrSource,
	espl.ErrTable,
	tables.ErrFormat,
	fs.ErrNotExist,
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil, writers.IsBrokenPipe(err):
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCanceled
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return ExitUsage
		}
	}
	return ExitRuntime
}

// RunContext runs one mlens invocation and returns its exit status.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	err := cli.New(outw, stderr).Execute(parent, argv)
	if e := outw.Flush(); e != nil && err == nil {
		err = e
	}

	code := ExitCode(err)
	if code != ExitOK && code != ExitCanceled {
		_, _ = fmt.Fprintln(stderr, "error:", err)
	}
	return code
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
