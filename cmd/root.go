package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DREAM-ODA-OS/eoxserver/internal/coverage"
	"github.com/DREAM-ODA-OS/eoxserver/internal/id2path"
	"github.com/DREAM-ODA-OS/eoxserver/internal/logging"
	"github.com/DREAM-ODA-OS/eoxserver/internal/render"
)

var (
	cfgFile   string
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eoxs",
	Short: "Subset referenceable coverages and track data object paths",
	Long: `eoxs renders pixel or geographic subsets of GCP georeferenced coverages
through GDAL and keeps track of the files belonging to data objects.

Examples:
  # Cut a pixel window out of a coverage and encode it as GeoTIFF
  eoxs render MER_FRS_1P_example --subset 'x(100,599)' --subset 'y(0,399)' --format image/tiff

  # Geographic subset, only print what would be done
  eoxs render MER_FRS_1P_example --subset 'Long(12,14)' --subset 'Lat(45,48)' --dry-run

  # Intersect two pixel rectangles
  eoxs rect intersect 0,0,100,100 50,50,100,100

  # Describe the latest coverage of a collection at a point
  eoxs coverage info --collection MER_FRS_1P --lon 12.5 --lat 46

  # Register the files of a data object
  printf '#obj1\n/data/obj1.tif;data\n' | eoxs i2p load

  # Start HTTP server
  eoxs serve --port 8080`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCloser = logging.Setup(logging.Options{
			Dir:    viper.GetString("log.dir"),
			Level:  viper.GetString("log.level"),
			Stderr: cmd.ErrOrStderr(),
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.eoxs.yaml)")
	rootCmd.PersistentFlags().String("log-dir", "", "directory of the rotated JSON log (default: text log on stderr)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("catalog", "", "directory of coverage descriptors")

	viper.BindPFlag("log.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("catalog.dir", rootCmd.PersistentFlags().Lookup("catalog"))

	viper.SetDefault("gdal.translate", "gdal_translate")
	viper.SetDefault("id2path.store", "file")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".eoxs" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".eoxs")
	}

	// EOXS_SERVER_PORT overrides server.port
	viper.SetEnvPrefix("eoxs")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func loadCatalog() (*coverage.Catalog, error) {
	catalog, err := coverage.LoadCatalog(viper.GetString("catalog.dir"))
	if err != nil {
		return nil, fmt.Errorf("loading coverage catalog: %w", err)
	}
	return catalog, nil
}

func newRenderer(dryRun bool) *render.Renderer {
	return render.New(render.Config{
		MaxSize: viper.GetInt("wcs.maxsize"),
		TempDir: viper.GetString("system.path_temp"),
		DryRun:  dryRun,
	}, nil, render.NewGDALTranslate(viper.GetString("gdal.translate")))
}

// openStore opens the configured id2path store.
func openStore(ctx context.Context) (id2path.Store, error) {
	switch kind := viper.GetString("id2path.store"); kind {
	case "postgres":
		store, err := id2path.OpenPGStore(ctx, viper.GetString("id2path.dsn"), viper.GetInt("id2path.pool"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "file", "":
		file := viper.GetString("id2path.file")
		if file == "" {
			return id2path.NewMemoryStore(), nil
		}
		store, err := id2path.OpenFileStore(file)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown id2path store %q (file|postgres)", kind)
	}
}

// catalogBindings treats catalogued coverages as bound objects.
type catalogBindings struct {
	catalog *coverage.Catalog
}

func (b catalogBindings) Has(identifier string) bool {
	return b.catalog != nil && b.catalog.Has(identifier)
}
