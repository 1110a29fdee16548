package tables

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"mlens-core/kinematics"
)

// Ephemeris is a tabulated geocentric position, linearly interpolated in
// Julian date. It satisfies kinematics.Ephemeris.
type Ephemeris struct {
	Name string
	JD   []float64
	Pos  []kinematics.Vec3
}

const (
	markStart = "$$SOE"
	markEnd   = "$$EOE"
)

// LoadEphemeris reads a vector table from path; see ParseEphemeris.
func LoadEphemeris(path string) (*Ephemeris, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tables: ephemeris: %w", err)
	}
	defer f.Close()
	e, err := ParseEphemeris(f)
	if err != nil {
		return nil, fmt.Errorf("tables: ephemeris %s: %w", path, err)
	}
	e.Name = path
	return e, nil
}

// ParseEphemeris reads rows "JD, [calendar date,] X, Y, Z[, ...]" in AU.
// When the input carries Horizons $$SOE/$$EOE markers only the rows between
// them are read; otherwise every non-blank line not starting with '#' is a
// row, and commas may be replaced by blanks.
func ParseEphemeris(r io.Reader) (*Ephemeris, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	body := lines
	if lo := indexOf(lines, markStart); lo >= 0 {
		hi := indexOf(lines[lo+1:], markEnd)
		if hi < 0 {
			return nil, fmt.Errorf("%s without %s: %w", markStart, markEnd, ErrFormat)
		}
		body = lines[lo+1 : lo+1+hi]
	}

	e := &Ephemeris{}
	for n, ln := range body {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		jd, pos, err := parseRow(ln)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		e.JD = append(e.JD, jd)
		e.Pos = append(e.Pos, pos)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func indexOf(lines []string, mark string) int {
	for i, ln := range lines {
		if strings.TrimSpace(ln) == mark {
			return i
		}
	}
	return -1
}

func parseRow(ln string) (float64, kinematics.Vec3, error) {
	var fields []string
	if strings.Contains(ln, ",") {
		for _, f := range strings.Split(ln, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	} else {
		fields = strings.Fields(ln)
	}
	// Horizons puts the calendar date after the JD.
	if len(fields) > 1 && strings.HasPrefix(fields[1], "A.D.") {
		fields = append(fields[:1], fields[2:]...)
	}
	if len(fields) < 4 {
		return 0, kinematics.Vec3{}, fmt.Errorf("%q: want JD X Y Z: %w", ln, ErrFormat)
	}
	var v [4]float64
	for i := range v {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, kinematics.Vec3{}, fmt.Errorf("%q: %w", fields[i], ErrFormat)
		}
		v[i] = x
	}
	return v[0], kinematics.Vec3{v[1], v[2], v[3]}, nil
}

// Validate requires at least two rows, finite values and strictly increasing
// dates.
func (e *Ephemeris) Validate() error {
	if len(e.JD) < 2 || len(e.JD) != len(e.Pos) {
		return fmt.Errorf("%d rows: %w", len(e.JD), ErrFormat)
	}
	for i, jd := range e.JD {
		if math.IsNaN(jd) || math.IsInf(jd, 0) {
			return fmt.Errorf("row %d: JD %g: %w", i+1, jd, ErrFormat)
		}
		if i > 0 && !(jd > e.JD[i-1]) {
			return fmt.Errorf("row %d: JD %g not after %g: %w", i+1, jd, e.JD[i-1], ErrFormat)
		}
		for _, x := range e.Pos[i] {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("row %d: position %v: %w", i+1, e.Pos[i], ErrFormat)
			}
		}
	}
	return nil
}

// Span is the covered date range.
func (e *Ephemeris) Span() (first, last float64) { return e.JD[0], e.JD[len(e.JD)-1] }

// Position interpolates the table at jd.
func (e *Ephemeris) Position(jd float64) (kinematics.Vec3, error) {
	n := len(e.JD)
	if n < 2 || !(jd >= e.JD[0] && jd <= e.JD[n-1]) {
		return kinematics.Vec3{}, fmt.Errorf("tables: JD %.5f outside %s: %w", jd, e.label(), kinematics.ErrEphemeris)
	}
	i := sort.SearchFloat64s(e.JD, jd)
	if i == 0 {
		return e.Pos[0], nil
	}
	f := (jd - e.JD[i-1]) / (e.JD[i] - e.JD[i-1])
	return e.Pos[i-1].Add(e.Pos[i].Sub(e.Pos[i-1]).Scale(f)), nil
}

func (e *Ephemeris) label() string {
	if e.Name == "" {
		return "ephemeris"
	}
	return e.Name
}
