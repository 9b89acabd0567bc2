package main

import (
	"fmt"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

type FmtConfig struct {
	Write bool
	Diff  bool
}

func NewFmtConfig() *FmtConfig {
	return &FmtConfig{}
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [key...]",
	Short: "Normalize skill front matter to the canonical form",
	Long: `Fmt re-encodes each skill's front matter with canonical field ordering
and consistent YAML style, leaving the Markdown body untouched. Without
--write it only lists the files that would change; --diff prints a
unified diff.

Examples:
  skillet fmt
  skillet fmt --diff
  skillet fmt --write writing/summarize`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getFmtConfigFromFlags(cmd)

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		docs := reg.Documents()
		if len(args) > 0 {
			docs = nil
			for _, arg := range args {
				doc, getErr := reg.Get(arg)
				if getErr != nil {
					presenter.Error(getErr, fmt.Sprintf("Unknown skill %q", arg))
					os.Exit(1)
				}
				docs = append(docs, doc)
			}
		}

		changed := 0
		for _, doc := range docs {
			formatted, fmtErr := doc.Encode()
			if fmtErr != nil {
				presenter.Error(fmtErr, fmt.Sprintf("Failed to format %s", doc.Path))
				os.Exit(1)
			}

			original, readErr := os.ReadFile(doc.Path)
			if readErr != nil {
				presenter.Error(readErr, fmt.Sprintf("Failed to read %s", doc.Path))
				os.Exit(1)
			}
			if string(original) == formatted {
				continue
			}
			changed++

			switch {
			case config.Write:
				if writeErr := writeFormatted(doc.Path, formatted); writeErr != nil {
					presenter.Error(writeErr, fmt.Sprintf("Failed to write %s", doc.Path))
					os.Exit(1)
				}
				presenter.Success(fmt.Sprintf("Formatted %s", doc.Path))
			case config.Diff:
				fmt.Print(udiff.Unified(doc.Path, doc.Path+" (formatted)", string(original), formatted))
			default:
				fmt.Println(doc.Path)
			}
		}

		if changed == 0 {
			presenter.Info("All skills already formatted")
		} else if !config.Write {
			presenter.Info(fmt.Sprintf("%d file(s) would change, rerun with --write to apply", changed))
		}
	},
}

func init() {
	defaults := NewFmtConfig()
	fmtCmd.Flags().BoolP("write", "w", defaults.Write, "Rewrite files in place")
	fmtCmd.Flags().BoolP("diff", "d", defaults.Diff, "Print a unified diff instead of file names")
	rootCmd.AddCommand(fmtCmd)
}

func getFmtConfigFromFlags(cmd *cobra.Command) *FmtConfig {
	config := NewFmtConfig()
	if write, err := cmd.Flags().GetBool("write"); err == nil {
		config.Write = write
	}
	if diff, err := cmd.Flags().GetBool("diff"); err == nil {
		config.Diff = diff
	}
	return config
}

func writeFormatted(path, formatted string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat skill file")
	}
	if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
		return errors.Wrap(err, "failed to write skill file")
	}
	// sanity check: the formatted output must still parse
	if _, err := skilldoc.ParseFile(path); err != nil {
		return errors.Wrap(err, "formatted output failed to parse")
	}
	return nil
}
