// Package lightcurve evaluates microlensing models over a sequence of epochs.
//
// Each model is a record type with named fields (PSPL, Binary, ...). FromFlat
// builds the records from the conventional flat parameter vectors, where
// scale parameters (tE, ρ, s, q, flux ratio) are given as natural logarithms.
package lightcurve

import (
	"fmt"
	"strings"
)

// Kind names a model and its modifiers.
type Kind int

const (
	KindPSPL Kind = iota
	KindPSPLParallax
	KindESPL
	KindESPLParallax
	KindBinary
	KindBinaryW
	KindBinaryParallax
	KindBinaryLinear
	KindBinaryOrbital
	KindBinaryKepler
	KindBinarySource
	KindBinarySourceParallax
	KindBinarySourceExt
	KindBinarySourceExtParallax
	KindBinarySourceExtXallarap
	KindTriple
	KindTripleParallax
	KindPSPLAstro
	KindESPLAstro
	KindBinaryAstro
	KindTripleAstro
	KindBinarySourceAstro
	KindMulti
	numKinds
)

type kindInfo struct {
	name    string
	nparams int // flat length; -1 when variable
	columns []string
}

var (
	colsSingle  = []string{"mag", "y1", "y2"}
	colsOrbit   = []string{"mag", "y1", "y2", "sep"}
	colsSources = []string{"mag", "y1", "y2", "y1s2", "y2s2"}
	colsXal     = []string{"mag", "y1", "y2", "y1s2", "y2s2", "sep"}
	colsAstro   = []string{"mag", "y1", "y2", "cn", "ce", "ln", "le"}
	colsBSAstro = []string{"mag", "y1", "y2", "y1s2", "y2s2", "cn", "ce", "ln", "le"}
)

var kinds = [numKinds]kindInfo{
	KindPSPL:                    {"pspl", 3, colsSingle},
	KindPSPLParallax:            {"pspl-parallax", 5, colsSingle},
	KindESPL:                    {"espl", 4, colsSingle},
	KindESPLParallax:            {"espl-parallax", 6, colsSingle},
	KindBinary:                  {"binary", 7, colsSingle},
	KindBinaryW:                 {"binary-w", 7, colsSingle},
	KindBinaryParallax:          {"binary-parallax", 9, colsSingle},
	KindBinaryLinear:            {"binary-linear", 11, colsOrbit},
	KindBinaryOrbital:           {"binary-orbital", 12, colsOrbit},
	KindBinaryKepler:            {"binary-kepler", 14, colsOrbit},
	KindBinarySource:            {"binary-source", 6, colsSources},
	KindBinarySourceParallax:    {"binary-source-parallax", 8, colsSources},
	KindBinarySourceExt:         {"binary-source-ext", 7, colsSources},
	KindBinarySourceExtParallax: {"binary-source-ext-parallax", 9, colsSources},
	KindBinarySourceExtXallarap: {"binary-source-ext-xallarap", 12, colsXal},
	KindTriple:                  {"triple", 10, colsSingle},
	KindTripleParallax:          {"triple-parallax", 12, colsSingle},
	KindPSPLAstro:               {"pspl-astro", 9, colsAstro},
	KindESPLAstro:               {"espl-astro", 10, colsAstro},
	KindBinaryAstro:             {"binary-astro", 13, colsAstro},
	KindTripleAstro:             {"triple-astro", 16, colsAstro},
	KindBinarySourceAstro:       {"binary-source-astro", 13, colsBSAstro},
	KindMulti:                   {"multi", -1, colsSingle},
}

func (k Kind) valid() bool { return k >= 0 && k < numKinds }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// NumParams is the flat vector length of k, or -1 for KindMulti whose length
// depends on the number of lenses.
func (k Kind) NumParams() int {
	if !k.valid() {
		return 0
	}
	return kinds[k].nparams
}

// ColumnNames lists the channels Result.Columns returns for k, in order.
func (k Kind) ColumnNames() []string {
	if !k.valid() {
		return nil
	}
	return append([]string(nil), kinds[k].columns...)
}

// ParseKind resolves a model name such as "binary-parallax". Underscores
// and case are ignored.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k := Kind(0); k < numKinds; k++ {
		if kinds[k].name == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("lightcurve: unknown model %q", s)
}

// Kinds returns every model kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}
