// Package logging is the structured logger used by the mlens commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used by the app packages.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Formatter prints "HH:MM:SS LEVEL message {k=v, ...}" with sorted fields.
type Formatter struct {
	TimestampFormat string
	DisableColors   bool
}

var levelStyle = map[logrus.Level]*color.Color{
	logrus.ErrorLevel: color.New(color.FgRed, color.Bold),
	logrus.WarnLevel:  color.New(color.FgYellow, color.Bold),
	logrus.InfoLevel:  color.New(color.FgCyan),
	logrus.DebugLevel: color.New(color.FgWhite, color.Faint),
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(e.Level.String())
	if !f.DisableColors {
		if c, ok := levelStyle[e.Level]; ok {
			level = c.Sprint(level)
		}
	}
	var b strings.Builder
	if f.TimestampFormat != "" {
		b.WriteString(e.Time.Format(f.TimestampFormat))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s %s", level, e.Message)

	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Data[k])
		}
		fields := " {" + strings.Join(parts, ", ") + "}"
		if !f.DisableColors {
			fields = color.New(color.FgWhite, color.Faint).Sprint(fields)
		}
		b.WriteString(fields)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type logger struct {
	entry *logrus.Entry
}

// New writes to out at the given level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func New(out io.Writer, level string, colors bool) Logger {
	l := logrus.New()
	l.SetOutput(out)
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)
	l.SetFormatter(&Formatter{TimestampFormat: "15:04:05", DisableColors: !colors})
	return &logger{entry: logrus.NewEntry(l)}
}

// NewForTest logs to out at debug level, without colours or timestamps.
func NewForTest(out io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&Formatter{DisableColors: true})
	return &logger{entry: logrus.NewEntry(l)}
}

// Discard drops everything.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &logger{entry: logrus.NewEntry(l)}
}

// ColorsFor reports whether w is a terminal that should get colours.
func ColorsFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

func toFields(fs []Field) logrus.Fields {
	out := make(logrus.Fields, len(fs))
	for _, f := range fs {
		out[f.Key] = f.Value
	}
	return out
}

func (l *logger) Debug(msg string, fs ...Field) { l.entry.WithFields(toFields(fs)).Debug(msg) }
func (l *logger) Info(msg string, fs ...Field)  { l.entry.WithFields(toFields(fs)).Info(msg) }
func (l *logger) Warn(msg string, fs ...Field)  { l.entry.WithFields(toFields(fs)).Warn(msg) }
func (l *logger) Error(msg string, fs ...Field) { l.entry.WithFields(toFields(fs)).Error(msg) }

func (l *logger) With(fs ...Field) Logger {
	return &logger{entry: l.entry.WithFields(toFields(fs))}
}
