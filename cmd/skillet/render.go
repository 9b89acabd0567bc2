package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/render"
)

type RenderConfig struct {
	Args   []string
	Out    string
	NoBash bool
}

func NewRenderConfig() *RenderConfig {
	return &RenderConfig{}
}

var renderCmd = &cobra.Command{
	Use:   "render <key>",
	Short: "Render a skill into its prompt form",
	Long: `Render evaluates a skill's template body with the given arguments and
prints the result with its identifying envelope line.

Examples:
  skillet render writing/summarize
  skillet render writing/summarize --arg subject="release notes"
  skillet render debugging/triage --no-bash --out prompt.txt`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getRenderConfigFromFlags(cmd)

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
		doc, err := reg.Get(args[0])
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Unknown skill %q", args[0]))
			os.Exit(1)
		}

		var opts []render.Option
		if config.NoBash {
			opts = append(opts, render.WithBashDisabled())
		}
		output, err := render.New(opts...).Render(ctx, doc, templateArgs)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to render %s", doc.Key()))
			os.Exit(1)
		}

		if config.Out != "" {
			if err := os.WriteFile(config.Out, []byte(output), 0o644); err != nil {
				presenter.Error(err, "Failed to write output file")
				os.Exit(1)
			}
			presenter.Success(fmt.Sprintf("Wrote %s", config.Out))
			return
		}
		fmt.Println(output)
	},
}

func init() {
	defaults := NewRenderConfig()
	renderCmd.Flags().StringArray("arg", defaults.Args, "Template argument as key=value (repeatable)")
	renderCmd.Flags().StringP("out", "o", defaults.Out, "Write output to a file instead of stdout")
	renderCmd.Flags().Bool("no-bash", defaults.NoBash, "Disable the bash template function")
	rootCmd.AddCommand(renderCmd)
}

func getRenderConfigFromFlags(cmd *cobra.Command) *RenderConfig {
	config := NewRenderConfig()
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

func parseTemplateArgs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		args[key] = value
	}
	return args, nil
}
