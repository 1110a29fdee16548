package writers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mlens/pkg/api"
)

func init() {
	Register("text", writeText)
	Register("tsv", writeText)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeText(w io.Writer, payload any) error {
	bw := bufio.NewWriter(w)
	switch p := payload.(type) {
	case api.LightCurveV1:
		textLightCurve(bw, p)
	case *api.LightCurveV1:
		textLightCurve(bw, *p)
	case api.MagV1:
		fmt.Fprintf(bw, "# model=%s run=%s\n", p.Model, p.RunID)
		bw.WriteString("mag\terr\tprecision_met\tcentroid_x\tcentroid_y\n")
		fmt.Fprintf(bw, "%s\t%s\t%t\t%s\t%s\n", ftoa(p.Mag), ftoa(p.Err), p.PrecisionMet, ftoa(p.CentroidX), ftoa(p.CentroidY))
		if len(p.Bands) > 0 {
			bw.WriteString("ld\tmag\terr\tprecision_met\n")
			for _, b := range p.Bands {
				fmt.Fprintf(bw, "%s\t%s\t%s\t%t\n", ftoa(b.LD), ftoa(b.Mag), ftoa(b.Err), b.PrecisionMet)
			}
		}
	case api.CurvesV1:
		textCurves(bw, p)
	case api.TableInfoV1:
		fmt.Fprintf(bw, "path\t%s\nz_max\t%s\nz_n\t%d\nrho_min\t%s\nrho_max\t%s\nrho_n\t%d\n",
			p.Path, ftoa(p.ZMax), p.ZN, ftoa(p.RhoMin), ftoa(p.RhoMax), p.RhoN)
	default:
		return unsupported("text", payload)
	}
	return bw.Flush()
}

func textLightCurve(bw *bufio.Writer, lc api.LightCurveV1) {
	fmt.Fprintf(bw, "# model=%s run=%s epochs=%d failed=%d\n", lc.Model, lc.RunID, len(lc.Epochs), lc.Failed)
	cols := append([]string{"t"}, lc.Columns...)
	bw.WriteString(strings.Join(cols, "\t"))
	bw.WriteByte('\n')
	for _, e := range lc.Epochs {
		for j, c := range cols {
			if j > 0 {
				bw.WriteByte('\t')
			}
			v, _ := Value(e, c)
			bw.WriteString(ftoa(v))
		}
		bw.WriteByte('\n')
	}
}

func textCurves(bw *bufio.Writer, cs api.CurvesV1) {
	fmt.Fprintf(bw, "# run=%s lenses=%d", cs.RunID, cs.Lenses)
	if cs.Topology != "" {
		fmt.Fprintf(bw, " topology=%s", cs.Topology)
	}
	bw.WriteString("\nkind\tindex\tx\ty\n")
	for _, c := range cs.Curves {
		for i := range c.X {
			fmt.Fprintf(bw, "%s\t%d\t%s\t%s\n", c.Kind, c.Index, ftoa(c.X[i]), ftoa(c.Y[i]))
		}
	}
}
