package writers

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrStreamClosed is returned by a JSONL stream whose reader went away
// before every epoch or curve was written.
var ErrStreamClosed = errors.New("writers: output stream closed")

// IsBrokenPipe reports whether err comes from a reader that went away,
// such as `head` closing stdout after the first epochs.
func IsBrokenPipe(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStreamClosed) || errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

// streamClosed tags a write error from a vanished reader with the number of
// records encoded before it.
func streamClosed(err error, written int) error {
	if !IsBrokenPipe(err) || errors.Is(err, ErrStreamClosed) {
		return err
	}
	return fmt.Errorf("%w after %d records: %w", ErrStreamClosed, written, err)
}
