package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DREAM-ODA-OS/eoxserver/internal/covinfo"
	"github.com/DREAM-ODA-OS/eoxserver/pkg/timetools"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Query the coverage catalog",
}

var coverageInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the top-most coverage of a collection at a point",
	Long: `info selects the coverages of a collection whose footprint contains the
point and whose time span overlaps --begin..--end, and prints the most
recent one as HTML. Nothing is printed when no coverage matches.

Examples:
  eoxs coverage info --collection MER_FRS_1P --lon 12.5 --lat 46
  eoxs coverage info --collection MER_FRS_1P --lon 12.5 --lat 46 --begin 2006-08-01 --end 2006-08-31`,
	Args: cobra.NoArgs,
	RunE: runCoverageInfo,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
	coverageCmd.AddCommand(coverageInfoCmd)

	coverageInfoCmd.Flags().String("collection", "", "collection (dataset series) identifier")
	coverageInfoCmd.Flags().Float64("lon", 0, "longitude of the point of interest")
	coverageInfoCmd.Flags().Float64("lat", 0, "latitude of the point of interest")
	coverageInfoCmd.Flags().String("begin", "", "start of the time interval (ISO 8601)")
	coverageInfoCmd.Flags().String("end", "", "end of the time interval (ISO 8601)")
	coverageInfoCmd.Flags().String("service-url", "", "base URL of the WMS browse request")
	coverageInfoCmd.MarkFlagRequired("collection")
	coverageInfoCmd.MarkFlagRequired("lon")
	coverageInfoCmd.MarkFlagRequired("lat")

	viper.BindPFlag("services.http_service_url", coverageInfoCmd.Flags().Lookup("service-url"))
}

func runCoverageInfo(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	q := covinfo.Query{}
	q.Collection, _ = flags.GetString("collection")
	q.Longitude, _ = flags.GetFloat64("lon")
	q.Latitude, _ = flags.GetFloat64("lat")

	var err error
	if q.Begin, err = timeFlag(cmd, "begin"); err != nil {
		return err
	}
	if q.End, err = timeFlag(cmd, "end"); err != nil {
		return err
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	cov, err := covinfo.Find(catalog, q)
	if err != nil || cov == nil {
		return err
	}

	info, err := covinfo.Describe(cov, viper.GetString("services.http_service_url"))
	if err != nil {
		return err
	}
	return info.WriteHTML(cmd.OutOrStdout())
}

func timeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	t, err := timetools.ParseISO8601(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}
