package writers

import (
	"fmt"
	"io"
	"sort"
)

// Func writes one payload (a pkg/api value) to w.
type Func func(w io.Writer, payload any) error

// registry maps format names to writers. Formats register in init blocks of
// their own files.
var registry = map[string]Func{}

// Register adds or replaces a format (last wins).
func Register(format string, fn Func) { registry[format] = fn }

// Formats lists the registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Known reports whether format has a writer.
func Known(format string) bool {
	_, ok := registry[format]
	return ok
}

// Write dispatches payload to the writer registered for format. A broken
// pipe is not an error.
func Write(format string, w io.Writer, payload any) error {
	fn, ok := registry[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	if err := fn(w, payload); err != nil && !IsBrokenPipe(err) {
		return err
	}
	return nil
}

func unsupported(format string, payload any) error {
	return fmt.Errorf("%s writer: unsupported payload %T", format, payload)
}
