package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	log := NewForTest(&buf).With(F("model", "binary"))
	log.Info("light curve done", F("epochs", 3), F("failed", 0))

	got := strings.TrimSpace(buf.String())
	want := "INFO light curve done {epochs=3, failed=0, model=binary}"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", false)
	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "WARNING shown") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	New(&buf, "nonsense", false).Info("info is the fallback")
	if !strings.Contains(buf.String(), "info is the fallback") {
		t.Fatalf("fallback level dropped info: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing happens", F("k", 1))
}

func TestColorsFor_Buffer(t *testing.T) {
	if ColorsFor(&bytes.Buffer{}) {
		t.Fatal("a buffer is not a terminal")
	}
}
