package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DREAM-ODA-OS/eoxserver/internal/render"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/subset"
)

var renderCmd = &cobra.Command{
	Use:   "render <coverage-id>",
	Short: "Render a subset of a referenceable coverage",
	Long: `Render cuts the requested pixel or geographic subset out of a catalogued
coverage, encodes it with gdal_translate and prints the result as JSON.

Examples:
  eoxs render MER_FRS_1P_example --subset 'x(0,499)' --subset 'y(0,499)'
  eoxs render MER_FRS_1P_example --subset 'Long(12,14)' --subset 'Lat(45,48)' \
      --format image/tiff --encoding compression=deflate --encoding tiling=true`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArray("subset", nil, "subset expression, e.g. 'x(0,99)' or 'Lat(40,45)' (repeatable)")
	renderCmd.Flags().String("subsetting-crs", "", "CRS of subsets without an explicit CRS")
	renderCmd.Flags().StringP("format", "f", "", "output MIME type (default: native format)")
	renderCmd.Flags().StringSlice("rangesubset", nil, "band names or 1-based indices")
	renderCmd.Flags().String("mediatype", "", "response media type, multipart/related adds the footprint")
	renderCmd.Flags().StringToString("encoding", nil, "GeoTIFF encoding parameters key=value")
	renderCmd.Flags().Float64("scalefactor", 0, "scale factor (not supported for referenceable coverages)")
	renderCmd.Flags().Bool("dry-run", false, "compute the subset without running gdal_translate")
	renderCmd.Flags().Int("maxsize", 0, "maximum output width and height in pixels (0: unlimited)")

	viper.BindPFlag("wcs.maxsize", renderCmd.Flags().Lookup("maxsize"))
}

func runRender(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	cov, ok := catalog.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown coverage %s", args[0])
	}

	values, _ := flags.GetStringArray("subset")
	crs, _ := flags.GetString("subsetting-crs")
	subsets, err := subset.Parse(values, crs)
	if err != nil {
		return err
	}

	format, _ := flags.GetString("format")
	rangeSubset, _ := flags.GetStringSlice("rangesubset")
	mediaType, _ := flags.GetString("mediatype")
	encoding, _ := flags.GetStringToString("encoding")
	dryRun, _ := flags.GetBool("dry-run")

	params := &render.Params{
		Coverage:       cov,
		Subsets:        subsets,
		Format:         format,
		RangeSubset:    rangeSubset,
		MediaType:      mediaType,
		EncodingParams: lowerKeys(encoding),
	}
	if flags.Changed("scalefactor") {
		scale, _ := flags.GetFloat64("scalefactor")
		params.ScaleFactor = &scale
	}

	result, err := newRenderer(dryRun).Render(cmd.Context(), params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func lowerKeys(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	lowered := make(map[string]string, len(m))
	for k, v := range m {
		lowered[strings.ToLower(k)] = v
	}
	return lowered
}
