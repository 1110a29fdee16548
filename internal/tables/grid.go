package tables

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mlens-core/espl"
)

// gridMagic opens every ESPL grid file.
const gridMagic = "mlens-espl-grid 1"

// WriteGrid stores g as text: the magic line, the grid spec
// "zmax zn rhomin rhomax rhon", then the uniform rows followed by the
// darkened rows, one ρ per line.
func WriteGrid(w io.Writer, g *espl.Grid) error {
	bw := bufio.NewWriter(w)
	s := g.Spec
	fmt.Fprintln(bw, gridMagic)
	fmt.Fprintf(bw, "%s %d %s %s %d\n", ff(s.ZMax), s.ZN, ff(s.RhoMin), ff(s.RhoMax), s.RhoN)
	for _, plane := range [][][]float64{g.U, g.Mu} {
		for _, row := range plane {
			for j, v := range row {
				if j > 0 {
					bw.WriteByte(' ')
				}
				bw.WriteString(ff(v))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// SaveGrid writes g to path.
func SaveGrid(path string, g *espl.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tables: save grid: %w", err)
	}
	if err := WriteGrid(f, g); err != nil {
		f.Close()
		return fmt.Errorf("tables: save grid %s: %w", path, err)
	}
	return f.Close()
}

// ReadGrid parses the WriteGrid format and validates the result.
func ReadGrid(r io.Reader) (*espl.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	next := func() (string, bool) {
		for sc.Scan() {
			if ln := strings.TrimSpace(sc.Text()); ln != "" {
				return ln, true
			}
		}
		return "", false
	}

	ln, ok := next()
	if !ok || ln != gridMagic {
		return nil, fmt.Errorf("missing %q header: %w", gridMagic, ErrFormat)
	}
	ln, ok = next()
	if !ok {
		return nil, fmt.Errorf("missing grid spec: %w", ErrFormat)
	}
	var spec espl.GridSpec
	if _, err := fmt.Sscan(ln, &spec.ZMax, &spec.ZN, &spec.RhoMin, &spec.RhoMax, &spec.RhoN); err != nil {
		return nil, fmt.Errorf("grid spec %q: %v: %w", ln, err, ErrFormat)
	}
	g, err := espl.NewGrid(spec)
	if err != nil {
		return nil, err
	}
	for p, plane := range [][][]float64{g.U, g.Mu} {
		for i := range plane {
			ln, ok := next()
			if !ok {
				return nil, fmt.Errorf("plane %d: %d of %d rows: %w", p, i, spec.RhoN, ErrFormat)
			}
			f := strings.Fields(ln)
			if len(f) != spec.ZN {
				return nil, fmt.Errorf("plane %d row %d: %d values, want %d: %w", p, i, len(f), spec.ZN, ErrFormat)
			}
			for j, s := range f {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("plane %d row %d: %q: %w", p, i, s, ErrFormat)
				}
				plane[i][j] = v
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGrid reads a grid from path.
func LoadGrid(path string) (*espl.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tables: load grid: %w", err)
	}
	defer f.Close()
	g, err := ReadGrid(f)
	if err != nil {
		return nil, fmt.Errorf("tables: load grid %s: %w", path, err)
	}
	return g, nil
}
