package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "List or set the metadata items of a coverage",
	Long: `Metadata items are the key/value pairs under "metadata:" in a coverage
descriptor. A key holds a single value; setting it again replaces the value.

Examples:
  eoxs metadata list -i MER_FRS_1P_example
  eoxs metadata set -i MER_FRS_1P_example -s platform -l Envisat`,
}

var metadataListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the metadata items of a coverage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cov, err := lookupCoverage(cmd)
		if err != nil {
			return err
		}
		key, _ := cmd.Flags().GetString("semantic")
		for _, k := range cov.MetadataItems(key) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%q\n", k, cov.Metadata[k])
		}
		return nil
	},
}

var metadataSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a metadata item of a coverage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("semantic")
		value, _ := cmd.Flags().GetString("value")
		if key == "" {
			return fmt.Errorf("missing mandatory metadata semantic (--semantic)")
		}
		if !cmd.Flags().Changed("value") {
			return fmt.Errorf("missing mandatory metadata value (--value)")
		}

		cov, err := lookupCoverage(cmd)
		if err != nil {
			return err
		}
		if cov.Source == "" {
			return fmt.Errorf("coverage %s has no descriptor file", cov.Identifier)
		}

		changed, err := coverage.SetMetadata(cov.Source, key, value)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintf(cmd.ErrOrStderr(), "Metadata item '%s' with the same value already exists. Nothing is done.\n", key)
			return nil
		}
		slog.Info("metadata item set", "coverage", cov.Identifier, "semantic", key, "descriptor", cov.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	metadataCmd.AddCommand(metadataListCmd, metadataSetCmd)

	metadataCmd.PersistentFlags().StringP("id", "i", "", "coverage identifier")
	metadataCmd.PersistentFlags().StringP("semantic", "s", "", "metadata item key")
	metadataSetCmd.Flags().StringP("value", "l", "", "metadata item value")
}

// lookupCoverage resolves --id in the catalog.
func lookupCoverage(cmd *cobra.Command) (*coverage.Coverage, error) {
	identifier, _ := cmd.Flags().GetString("id")
	if identifier == "" {
		return nil, fmt.Errorf("missing mandatory coverage identifier (--id)")
	}
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	cov, ok := catalog.Get(identifier)
	if !ok {
		return nil, fmt.Errorf("there is no coverage matching the identifier: '%s'", identifier)
	}
	return cov, nil
}
