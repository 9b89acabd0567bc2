package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
)

type ShowConfig struct {
	JSONOutput   bool
	Raw          bool
	SectionsOnly bool
}

func NewShowConfig() *ShowConfig {
	return &ShowConfig{}
}

var showCmd = &cobra.Command{
	Use:   "show <name|key>",
	Short: "Show a skill document",
	Long: `Show a skill document resolved by key ("category/slug") or bare name.

Examples:
  skillet show writing-and-content/summarize
  skillet show summarize --sections
  skillet show summarize --raw`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getShowConfigFromFlags(cmd)

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		doc, err := reg.Get(args[0])
		if err != nil {
			presenter.Error(err, "Failed to resolve skill")
			os.Exit(1)
		}

		switch {
		case config.JSONOutput:
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(doc); err != nil {
				presenter.Error(err, "Failed to encode skill")
				os.Exit(1)
			}
		case config.Raw:
			content, err := os.ReadFile(doc.Path)
			if err != nil {
				presenter.Error(err, "Failed to read skill document")
				os.Exit(1)
			}
			os.Stdout.Write(content)
		case config.SectionsOnly:
			for _, section := range doc.Sections {
				fmt.Printf("%s %s (line %d)\n", headingMarker(section.Level), section.Title, section.Line)
			}
		default:
			presenter.Section(doc.Key())
			presenter.Info("Name:        " + doc.Name)
			presenter.Info("Description: " + doc.Description)
			if doc.License != "" {
				presenter.Info("License:     " + doc.License)
			}
			if author := doc.Author(); author != "" {
				presenter.Info("Author:      " + author)
			}
			if version := doc.Version(); version != "" {
				presenter.Info("Version:     " + version)
			}
			presenter.Info("Path:        " + doc.Path)
			presenter.Separator()
			fmt.Println(doc.Body)
		}
	},
}

func init() {
	defaults := NewShowConfig()
	showCmd.Flags().Bool("json", defaults.JSONOutput, "Output the parsed document as JSON")
	showCmd.Flags().Bool("raw", defaults.Raw, "Output the raw file bytes")
	showCmd.Flags().Bool("sections", defaults.SectionsOnly, "List the body sections only")
	rootCmd.AddCommand(showCmd)
}

func getShowConfigFromFlags(cmd *cobra.Command) *ShowConfig {
	config := NewShowConfig()
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	if raw, err := cmd.Flags().GetBool("raw"); err == nil {
		config.Raw = raw
	}
	if sections, err := cmd.Flags().GetBool("sections"); err == nil {
		config.SectionsOnly = sections
	}
	return config
}

func headingMarker(level int) string {
	marker := ""
	for i := 0; i < level; i++ {
		marker += "#"
	}
	return marker
}
