package writers

import (
	"io"

	"gopkg.in/yaml.v3"

	"mlens/pkg/api"
)

func init() { Register("yaml", writeYAML) }

func writeYAML(w io.Writer, payload any) error {
	switch payload.(type) {
	case api.LightCurveV1, *api.LightCurveV1, api.MagV1, api.CurvesV1, api.TableInfoV1:
	default:
		return unsupported("yaml", payload)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}
