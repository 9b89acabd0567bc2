package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/presenter"
)

type LintConfig struct {
	Format        string
	FailOn        string
	DisabledRules []string
	Record        bool
}

func NewLintConfig() *LintConfig {
	return &LintConfig{
		Format:        "text",
		FailOn:        "error",
		DisabledRules: viper.GetStringSlice("lint.disable"),
	}
}

func (c *LintConfig) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q (must be text or json)", c.Format)
	}
	if c.FailOn != "error" && c.FailOn != "warning" && c.FailOn != "never" {
		return fmt.Errorf("invalid fail-on %q (must be error, warning, or never)", c.FailOn)
	}
	return nil
}

var lintCmd = &cobra.Command{
	Use:   "lint [path]",
	Short: "Check every skill in the library against the lint rules",
	Long: `Lint parses every skill document and reports rule violations. The exit
code is non-zero when findings at or above the --fail-on threshold exist.
An optional path argument lints that directory instead of the configured
library root.

Examples:
  skillet lint
  skillet lint ./drafts --format json
  skillet lint --fail-on warning --disable body/example`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getLintConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid lint options")
			os.Exit(1)
		}

		root := libraryRoot()
		if len(args) == 1 {
			root = args[0]
		}
		library, err := corpus.Load(ctx, root)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		linter, err := lint.New(lint.WithDisabledRules(config.DisabledRules...))
		if err != nil {
			presenter.Error(err, "Failed to configure linter")
			os.Exit(1)
		}

		startedAt := time.Now()
		report := linter.LintLibrary(ctx, library)

		if config.Record {
			if store, openErr := catalog.OpenDefault(ctx, root); openErr != nil {
				logger.G(ctx).WithError(openErr).Warn("skipping lint history, catalog unavailable")
			} else {
				if _, recordErr := store.RecordLintRun(ctx, report, startedAt); recordErr != nil {
					logger.G(ctx).WithError(recordErr).Warn("failed to record lint run")
				}
				store.Close()
			}
		}

		switch config.Format {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				presenter.Error(err, "Failed to encode lint report")
				os.Exit(1)
			}
		default:
			printLintReport(report)
		}

		if lintFailed(report, config.FailOn) {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewLintConfig()
	lintCmd.Flags().String("format", defaults.Format, "Output format (text, json)")
	lintCmd.Flags().String("fail-on", defaults.FailOn, "Severity that makes the exit code non-zero (error, warning, never)")
	lintCmd.Flags().StringSlice("disable", defaults.DisabledRules, "Rule IDs to skip")
	lintCmd.Flags().Bool("record", true, "Record the run in the catalog's lint history")
	rootCmd.AddCommand(withTracing(lintCmd))
}

func getLintConfigFromFlags(cmd *cobra.Command) *LintConfig {
	config := NewLintConfig()
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if failOn, err := cmd.Flags().GetString("fail-on"); err == nil {
		config.FailOn = failOn
	}
	if cmd.Flags().Changed("disable") {
		if disabled, err := cmd.Flags().GetStringSlice("disable"); err == nil {
			config.DisabledRules = disabled
		}
	}
	if record, err := cmd.Flags().GetBool("record"); err == nil {
		config.Record = record
	}
	return config
}

func printLintReport(report *lint.Report) {
	for _, finding := range report.Findings {
		location := finding.Path
		if finding.Line > 0 {
			location = fmt.Sprintf("%s:%d", finding.Path, finding.Line)
		}
		line := fmt.Sprintf("%s [%s] %s", location, finding.Rule, finding.Message)
		if finding.Severity == lint.SeverityError {
			presenter.Warning(line)
		} else {
			presenter.Info(line)
		}
	}
	if len(report.Findings) > 0 {
		presenter.Separator()
	}
	summary := fmt.Sprintf("%d document(s) checked, %d error(s), %d warning(s)",
		report.Checked, report.Errors(), report.Warnings())
	if report.Failed() {
		presenter.Warning(summary)
	} else {
		presenter.Success(summary)
	}
}

func lintFailed(report *lint.Report, failOn string) bool {
	switch failOn {
	case "warning":
		return report.Errors() > 0 || report.Warnings() > 0
	case "never":
		return false
	default:
		return report.Failed()
	}
}
