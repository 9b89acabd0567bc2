package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/search"
	"github.com/skillet-cli/skillet/pkg/server"
)

type ServeConfig struct {
	Host string
	Port int
}

func NewServeConfig() *ServeConfig {
	config := &ServeConfig{
		Host: "localhost",
		Port: 8721,
	}
	if host := viper.GetString("server.host"); host != "" {
		config.Host = host
	}
	if port := viper.GetInt("server.port"); port != 0 {
		config.Port = port
	}
	return config
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the skill library over HTTP",
	Long: `Serve starts a JSON API for the library: listing, detail, rendered
prompts, categories, search, and lint results. The catalog and search
index are attached when available.

Examples:
  skillet serve
  skillet serve --host 0.0.0.0 --port 9090`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		var opts []server.Option
		if store, openErr := catalog.OpenDefault(ctx, libraryRoot()); openErr != nil {
			logger.G(ctx).WithError(openErr).Warn("catalog unavailable, list endpoint will scan the library")
		} else {
			defer store.Close()
			if _, syncErr := store.Sync(ctx, reg.Library()); syncErr != nil {
				logger.G(ctx).WithError(syncErr).Warn("catalog sync failed")
			}
			opts = append(opts, server.WithCatalog(store))
		}

		if indexPath, pathErr := search.DefaultIndexPath(libraryRoot()); pathErr == nil {
			if index, openErr := search.Open(indexPath); openErr != nil {
				logger.G(ctx).WithError(openErr).Warn("search index unavailable, search endpoint disabled")
			} else {
				defer index.Close()
				if _, syncErr := index.Sync(ctx, reg.Library()); syncErr != nil {
					logger.G(ctx).WithError(syncErr).Warn("search index sync failed")
				}
				opts = append(opts, server.WithSearchIndex(index))
			}
		}

		srv, err := server.New(&server.Config{Host: config.Host, Port: config.Port}, reg, opts...)
		if err != nil {
			presenter.Error(err, "Failed to configure server")
			os.Exit(1)
		}

		if err := srv.Start(ctx); err != nil {
			presenter.Error(err, "Server stopped")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the server to")
	serveCmd.Flags().IntP("port", "p", defaults.Port, "Port to listen on")
	rootCmd.AddCommand(withTracing(serveCmd))
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()
	if cmd.Flags().Changed("host") {
		if host, err := cmd.Flags().GetString("host"); err == nil {
			config.Host = host
		}
	}
	if cmd.Flags().Changed("port") {
		if port, err := cmd.Flags().GetInt("port"); err == nil {
			config.Port = port
		}
	}
	return config
}
