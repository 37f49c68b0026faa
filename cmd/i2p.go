package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DREAM-ODA-OS/eoxserver/internal/id2path"
)

var i2pCmd = &cobra.Command{
	Use:   "i2p",
	Short: "Track the file system paths of data objects",
	Long: `i2p maintains the many-to-many relation between data object identifiers
and path items. Records are read and written one per line:

  #<identifier>             switches the current object
  <path>;<type>[;<label>]   a path item of the current object

Path types: file, data, metadata, data+metadata, raster-mask, vector-mask,
browse, directory.`,
}

var i2pLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Register path items read from file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier, _ := cmd.Flags().GetString("id")
		return withManager(cmd, func(ctx context.Context, m *id2path.Manager) error {
			return withInput(cmd, args, func(r io.Reader) error {
				stats, err := m.Load(ctx, r, identifier)
				stats.Report(cmd.ErrOrStderr())
				return err
			})
		})
	},
}

var i2pListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked objects and their path items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var opts id2path.ListOptions
		opts.Identifier, _ = flags.GetString("id")
		opts.Full, _ = flags.GetBool("full")
		opts.Unbound, _ = flags.GetBool("unbound")
		opts.UnboundStrict, _ = flags.GetBool("unbound-strict")
		opts.Empty, _ = flags.GetBool("empty")

		expression, _ := flags.GetString("match")
		matcher, err := id2path.ParseMatcher(expression)
		if err != nil {
			return err
		}
		opts.Match = matcher

		return withManager(cmd, func(ctx context.Context, m *id2path.Manager) error {
			return m.List(ctx, cmd.OutOrStdout(), opts)
		})
	},
}

var i2pDeleteCmd = &cobra.Command{
	Use:   "delete [file]",
	Short: "Remove or unlink path items read from file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier, _ := cmd.Flags().GetString("id")
		removeEmpty, _ := cmd.Flags().GetBool("remove-empty")
		return withManager(cmd, func(ctx context.Context, m *id2path.Manager) error {
			return withInput(cmd, args, func(r io.Reader) error {
				stats, err := m.Delete(ctx, r, identifier, removeEmpty)
				stats.Report(cmd.ErrOrStderr())
				return err
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(i2pCmd)
	i2pCmd.AddCommand(i2pLoadCmd, i2pListCmd, i2pDeleteCmd)

	i2pCmd.PersistentFlags().StringP("id", "i", "", "identifier of the tracked object")
	i2pCmd.PersistentFlags().String("store", "", "id2path store (file|postgres)")
	i2pCmd.PersistentFlags().String("store-file", "", "YAML file of the file store")
	i2pCmd.PersistentFlags().String("dsn", "", "PostgreSQL connection string of the postgres store")

	viper.BindPFlag("id2path.store", i2pCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("id2path.file", i2pCmd.PersistentFlags().Lookup("store-file"))
	viper.BindPFlag("id2path.dsn", i2pCmd.PersistentFlags().Lookup("dsn"))

	i2pListCmd.Flags().BoolP("full", "f", false, "print the path items of the listed objects")
	i2pListCmd.Flags().BoolP("unbound", "u", false, "list objects not bound to a coverage")
	i2pListCmd.Flags().Bool("unbound-strict", false, "like --unbound, printing only paths not shared with bound objects")
	i2pListCmd.Flags().BoolP("empty", "e", false, "list objects without path items")
	i2pListCmd.Flags().StringP("match", "m", "", "filter expression over path, type and label, e.g. \"type == 'data'\"")

	i2pDeleteCmd.Flags().Bool("remove-empty", false, "delete objects left without path items")
}

// withManager opens the configured store for the duration of fn.
func withManager(cmd *cobra.Command, fn func(context.Context, *id2path.Manager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	return fn(ctx, id2path.NewManager(store, catalogBindings{catalog}, slog.Default()))
}

// withInput passes the named file, or stdin for none and "-", to fn.
func withInput(cmd *cobra.Command, args []string, fn func(io.Reader) error) error {
	if len(args) == 0 || args[0] == "-" {
		return fn(cmd.InOrStdin())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()
	return fn(f)
}
