package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/presenter"
)

type StatsConfig struct {
	JSONOutput bool
}

func NewStatsConfig() *StatsConfig {
	return &StatsConfig{}
}

type statsOutput struct {
	Documents   int                  `json:"documents"`
	Categories  []catalog.ValueCount `json:"categories,omitempty"`
	Licenses    []catalog.ValueCount `json:"licenses,omitempty"`
	Authors     []catalog.ValueCount `json:"authors,omitempty"`
	ParseErrors int                  `json:"parseErrors"`
	LatestLint  *catalog.LintRun     `json:"latestLint,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the skill library",
	Long: `Stats reports document, category, license, and author counts from the
catalog, plus parse failures from a fresh scan and the most recent
recorded lint run.

Examples:
  skillet stats
  skillet stats --json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getStatsConfigFromFlags(cmd)

		library, err := loadLibrary(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		store, err := catalog.OpenDefault(ctx, libraryRoot())
		if err != nil {
			presenter.Error(err, "Failed to open catalog")
			os.Exit(1)
		}
		defer store.Close()

		// the scan on disk is authoritative, the catalog may be stale
		if _, err := store.Sync(ctx, library); err != nil {
			logger.G(ctx).WithError(err).Warn("catalog sync failed, stats may be stale")
		}

		output := statsOutput{ParseErrors: len(library.Failed())}
		if output.Documents, err = store.Count(ctx); err != nil {
			presenter.Error(err, "Failed to count documents")
			os.Exit(1)
		}
		if output.Categories, err = store.CategoryCounts(ctx); err != nil {
			presenter.Error(err, "Failed to count categories")
			os.Exit(1)
		}
		if output.Licenses, err = store.LicenseCounts(ctx); err != nil {
			presenter.Error(err, "Failed to count licenses")
			os.Exit(1)
		}
		if output.Authors, err = store.AuthorCounts(ctx); err != nil {
			presenter.Error(err, "Failed to count authors")
			os.Exit(1)
		}
		if output.LatestLint, err = store.LatestLintRun(ctx); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to load lint history")
		}

		if config.JSONOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(output); err != nil {
				presenter.Error(err, "Failed to encode stats")
				os.Exit(1)
			}
			return
		}

		stats := &presenter.LibraryStats{
			Documents:   output.Documents,
			Categories:  len(output.Categories),
			ParseErrors: output.ParseErrors,
		}
		if output.LatestLint != nil {
			stats.LintErrors = output.LatestLint.Errors
			stats.LintWarnings = output.LatestLint.Warnings
		}
		presenter.Stats(stats)

		if len(output.Categories) > 0 {
			presenter.Section("Categories")
			for _, bucket := range output.Categories {
				presenter.Info(fmt.Sprintf("%-24s %d", bucket.Value, bucket.Count))
			}
		}
		if len(output.Licenses) > 0 {
			presenter.Section("Licenses")
			for _, bucket := range output.Licenses {
				presenter.Info(fmt.Sprintf("%-24s %d", bucket.Value, bucket.Count))
			}
		}
		if len(output.Authors) > 0 {
			presenter.Section("Authors")
			for _, bucket := range output.Authors {
				presenter.Info(fmt.Sprintf("%-24s %d", bucket.Value, bucket.Count))
			}
		}
	},
}

func init() {
	defaults := NewStatsConfig()
	statsCmd.Flags().Bool("json", defaults.JSONOutput, "Output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func getStatsConfigFromFlags(cmd *cobra.Command) *StatsConfig {
	config := NewStatsConfig()
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	return config
}
