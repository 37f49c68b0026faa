package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DREAM-ODA-OS/eoxserver/internal/id2path"
	"github.com/DREAM-ODA-OS/eoxserver/internal/server"
)

const version = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for coverage rendering and id2path lookups",
	Long: `Start an HTTP server that renders subsets of the catalogued coverages and
answers id2path lookups.

Examples:
  # Start server on default port 8080
  eoxs serve

  # Start server on custom port
  eoxs serve --port 3000

  # Start server with custom bind address
  eoxs serve --bind 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().String("memcache", "", "memcache address host:port for id2path responses")
	serveCmd.Flags().Duration("memcache-ttl", server.DefaultCacheTTL, "lifetime of cached id2path responses")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("memcache.address", serveCmd.Flags().Lookup("memcache"))
	viper.BindPFlag("memcache.ttl", serveCmd.Flags().Lookup("memcache-ttl"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	access, err := server.ParseAccessList(
		viper.GetStringSlice("id2path.allow_from"),
		viper.GetStringSlice("id2path.deny_from"),
	)
	if err != nil {
		return fmt.Errorf("id2path access list: %w", err)
	}

	var cache server.Cache
	if uri := viper.GetString("memcache.address"); uri != "" {
		// lazy connection; errors returned in Get
		cache = server.NewMemcacheCache(uri)
	}

	manager := id2path.NewManager(store, catalogBindings{catalog}, slog.Default())
	apiServer := server.NewServer(version, catalog, newRenderer(false),
		server.NewId2PathView(manager, access, cache, viper.GetDuration("memcache.ttl")))
	apiServer.SetServiceURL(viper.GetString("services.http_service_url"))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("starting server", "addr", addr, "coverages", len(catalog.Identifiers()))
	fmt.Fprintf(cmd.ErrOrStderr(), "Starting eoxs server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s%s/health\n", addr, server.BaseURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "Coverages: http://%s%s/coverages\n", addr, server.BaseURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "Coverage info: http://%s%s/coverages/info\n", addr, server.BaseURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "id2path: http://%s%s/id2path\n", addr, server.BaseURL)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
