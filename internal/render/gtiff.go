package render

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Option is a GDAL creation option.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (o Option) String() string {
	return o.Key + "=" + o.Value
}

var predictors = []string{"NONE", "HORIZONTAL", "FLOATINGPOINT"}

// GTiffOptions turns encoding parameters into GeoTIFF creation options.
// Recognised keys are compression, jpeg_quality, predictor, interleave,
// tiling, tilewidth and tileheight.
func GTiffOptions(params map[string]string) ([]Option, error) {
	slog.Debug("applying GeoTIFF parameters", "params", params)

	var opts []Option

	if compression := params["compression"]; compression != "" {
		if strings.EqualFold(compression, "huffman") {
			compression = "CCITTRLE"
		}
		opts = append(opts, Option{"COMPRESS", strings.ToUpper(compression)})
	}

	if quality, ok := params["jpeg_quality"]; ok {
		q, err := strconv.Atoi(quality)
		if err != nil || q < 1 || q > 100 {
			return nil, &RenderError{Message: fmt.Sprintf("Invalid JPEG quality '%s'.", quality), Locator: "jpeg_quality"}
		}
		opts = append(opts, Option{"JPEG_QUALITY", strconv.Itoa(q)})
	}

	if predictor := params["predictor"]; predictor != "" {
		index := -1
		for i, p := range predictors {
			if strings.EqualFold(predictor, p) {
				index = i
				break
			}
		}
		if index == -1 {
			return nil, &RenderError{Message: fmt.Sprintf("Invalid compression predictor '%s'.", predictor), Locator: "predictor"}
		}
		opts = append(opts, Option{"PREDICTOR", strconv.Itoa(index + 1)})
	}

	if interleave := params["interleave"]; interleave != "" {
		opts = append(opts, Option{"INTERLEAVE", strings.ToUpper(interleave)})
	}

	tiling := false
	if v, ok := params["tiling"]; ok {
		var err error
		if tiling, err = strconv.ParseBool(v); err != nil {
			return nil, &RenderError{Message: fmt.Sprintf("Invalid tiling flag '%s'.", v), Locator: "tiling"}
		}
	}
	if tiling {
		opts = append(opts, Option{"TILED", "YES"})
		for _, dim := range []struct{ param, key string }{
			{"tilewidth", "BLOCKXSIZE"},
			{"tileheight", "BLOCKYSIZE"},
		} {
			v, ok := params[dim.param]
			if !ok {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, &RenderError{Message: fmt.Sprintf("Invalid %s '%s'.", dim.param, v), Locator: dim.param}
			}
			opts = append(opts, Option{dim.key, strconv.Itoa(n)})
		}
	}

	return opts, nil
}
