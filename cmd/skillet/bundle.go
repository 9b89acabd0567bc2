package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/render"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

type BundleConfig struct {
	Category string
	Args     []string
	Out      string
	NoBash   bool
}

func NewBundleConfig() *BundleConfig {
	return &BundleConfig{}
}

var bundleCmd = &cobra.Command{
	Use:   "bundle [key...]",
	Short: "Render several skills into one combined prompt",
	Long: `Bundle renders the named skills (or a whole category) and joins them
with separators, ordered by key.

Examples:
  skillet bundle writing/summarize writing/translate
  skillet bundle --category debugging --out debugging.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getBundleConfigFromFlags(cmd)

		if len(args) == 0 && config.Category == "" {
			presenter.Error(fmt.Errorf("nothing to bundle"), "Pass skill keys or --category")
			os.Exit(1)
		}

		templateArgs, err := parseTemplateArgs(config.Args)
		if err != nil {
			presenter.Error(err, "Invalid --arg value")
			os.Exit(1)
		}

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		var docs []*skilldoc.Document
		if config.Category != "" {
			docs = reg.FilterCategory(config.Category)
			if len(docs) == 0 {
				presenter.Error(fmt.Errorf("no skills in category %q", config.Category), "Nothing to bundle")
				os.Exit(1)
			}
		}
		for _, arg := range args {
			doc, getErr := reg.Get(arg)
			if getErr != nil {
				presenter.Error(getErr, fmt.Sprintf("Unknown skill %q", arg))
				os.Exit(1)
			}
			docs = append(docs, doc)
		}

		var opts []render.Option
		if config.NoBash {
			opts = append(opts, render.WithBashDisabled())
		}
		output, err := render.New(opts...).Bundle(ctx, docs, templateArgs)
		if err != nil {
			presenter.Error(err, "Failed to render bundle")
			os.Exit(1)
		}

		if config.Out != "" {
			if err := os.WriteFile(config.Out, []byte(output), 0o644); err != nil {
				presenter.Error(err, "Failed to write output file")
				os.Exit(1)
			}
			presenter.Success(fmt.Sprintf("Bundled %d skill(s) into %s", len(docs), config.Out))
			return
		}
		fmt.Println(output)
	},
}

func init() {
	defaults := NewBundleConfig()
	bundleCmd.Flags().StringP("category", "c", defaults.Category, "Bundle every skill in a category")
	bundleCmd.Flags().StringArray("arg", defaults.Args, "Template argument as key=value (repeatable)")
	bundleCmd.Flags().StringP("out", "o", defaults.Out, "Write output to a file instead of stdout")
	bundleCmd.Flags().Bool("no-bash", defaults.NoBash, "Disable the bash template function")
	rootCmd.AddCommand(bundleCmd)
}

func getBundleConfigFromFlags(cmd *cobra.Command) *BundleConfig {
	config := NewBundleConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if args, err := cmd.Flags().GetStringArray("arg"); err == nil {
		config.Args = args
	}
	if out, err := cmd.Flags().GetString("out"); err == nil {
		config.Out = out
	}
	if noBash, err := cmd.Flags().GetBool("no-bash"); err == nil {
		config.NoBash = noBash
	}
	return config
}
