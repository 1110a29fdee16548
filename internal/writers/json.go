package writers

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"mlens/pkg/api"
)

func init() {
	Register("json", writeJSON)
	Register("jsonl", writeJSONL)
}

func writeJSON(w io.Writer, payload any) error {
	switch payload.(type) {
	case api.LightCurveV1, *api.LightCurveV1, api.MagV1, api.CurvesV1, api.TableInfoV1:
	default:
		return unsupported("json", payload)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// One 64 KiB buffer per concurrent JSONL stream, reused across streams.
var bwPool = sync.Pool{
	New: func() any { return bufio.NewWriterSize(io.Discard, 64<<10) },
}

// StartJSONL starts a goroutine that encodes each value sent on the returned
// channel as one JSON line. Close the channel, then read the error channel.
// Broken pipes on the final flush are suppressed; one mid-stream is reported
// as ErrStreamClosed with the count of records encoded, and the remaining
// values are drained.
func StartJSONL[T any](out io.Writer, bufSize int) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		enc := json.NewEncoder(bw)
		var (
			err     error
			written int
		)
		for v := range in {
			if err != nil {
				continue
			}
			if err = enc.Encode(v); err != nil {
				err = streamClosed(err, written)
				continue
			}
			written++
		}
		if err == nil {
			if ferr := bw.Flush(); ferr != nil && !IsBrokenPipe(ferr) {
				err = ferr
			}
		}
		done <- err
	}()
	return in, done
}

func streamJSONL[T any](out io.Writer, vs []T) error {
	in, done := StartJSONL[T](out, 0)
	for _, v := range vs {
		in <- v
	}
	close(in)
	return <-done
}

// writeJSONL emits one line per epoch or curve, or one line for scalar
// payloads.
func writeJSONL(w io.Writer, payload any) error {
	switch p := payload.(type) {
	case *api.LightCurveV1:
		return writeJSONL(w, *p)
	case api.LightCurveV1:
		eps := make([]api.EpochV1, len(p.Epochs))
		for i, e := range p.Epochs {
			e.RunID = p.RunID
			eps[i] = e
		}
		return streamJSONL(w, eps)
	case api.CurvesV1:
		return streamJSONL(w, p.Curves)
	case api.MagV1, api.TableInfoV1:
		return streamJSONL(w, []any{p})
	}
	return unsupported("jsonl", payload)
}
