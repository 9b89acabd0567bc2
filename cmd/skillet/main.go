// Command skillet is a toolkit for curated libraries of Markdown skill
// documents: authoring, validating, cataloguing, searching, rendering, and
// serving them to agent runtimes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/registry"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLET")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("skillet")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.skillet")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "Skillet manages libraries of Markdown skill documents",
	Long: `Skillet is a toolkit for curated libraries of natural-language "skill"
documents: Markdown files with YAML front matter that describe, for an AI
agent, how to approach a task. It validates their structure, catalogs and
searches them, renders them as prompt payloads, and serves them over HTTP
and the Model Context Protocol.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			presenter.Warning("Invalid log level, using info")
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// libraryRoot returns the library root directory from flags, env, or config
func libraryRoot() string {
	root := viper.GetString("library")
	if root == "" {
		root = "."
	}
	return root
}

// loadLibrary loads the configured library from disk
func loadLibrary(ctx context.Context) (*corpus.Library, error) {
	return corpus.Load(ctx, libraryRoot())
}

// loadRegistry loads the configured library into a registry
func loadRegistry(ctx context.Context) (*registry.Registry, error) {
	return registry.Load(ctx, libraryRoot())
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("library", ".", "Skill library root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	// Bind flags to viper
	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := initTracing(ctx)
	if err != nil {
		logger.L.WithError(err).Warn("failed to initialize tracing")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.L.WithError(err).Debug("failed to shut down tracing")
			}
		}()
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "Command failed")
		os.Exit(1)
	}
}
