package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/scaffold"
)

type NewConfig struct {
	Description string
	License     string
	Author      string
	Version     string
	DirForm     bool
}

func NewNewConfig() *NewConfig {
	return &NewConfig{
		License: viper.GetString("default.license"),
		Author:  viper.GetString("default.author"),
	}
}

var newCmd = &cobra.Command{
	Use:   "new <category>/<slug>",
	Short: "Scaffold a new skill document",
	Long: `New creates a skill file with front matter and a starter body. The key
argument decides where it lives: "writing/summarize" becomes
writing/summarize.md, or writing/summarize/SKILL.md with --dir.

Default license and author come from the default.license and
default.author config keys.

Examples:
  skillet new writing/summarize
  skillet new debugging/triage --description "Triage production incidents" --dir`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getNewConfigFromFlags(cmd)

		category, slug, found := strings.Cut(args[0], "/")
		if !found || category == "" || slug == "" {
			presenter.Error(fmt.Errorf("invalid key %q", args[0]), "Expected <category>/<slug>")
			os.Exit(1)
		}

		result, err := scaffold.Create(libraryRoot(), scaffold.Request{
			Category:    category,
			Slug:        slug,
			Description: config.Description,
			License:     config.License,
			Author:      config.Author,
			Version:     config.Version,
			DirForm:     config.DirForm,
		})
		if err != nil {
			presenter.Error(err, "Failed to create skill")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Created %s (%s)", result.Path, result.Key))
	},
}

func init() {
	defaults := NewNewConfig()
	newCmd.Flags().StringP("description", "d", defaults.Description, "Skill description")
	newCmd.Flags().String("license", defaults.License, "License identifier")
	newCmd.Flags().String("author", defaults.Author, "Author recorded in metadata")
	newCmd.Flags().String("version", defaults.Version, "Initial version")
	newCmd.Flags().Bool("dir", defaults.DirForm, "Use the <category>/<slug>/SKILL.md layout")
	rootCmd.AddCommand(newCmd)
}

func getNewConfigFromFlags(cmd *cobra.Command) *NewConfig {
	config := NewNewConfig()
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if license, err := cmd.Flags().GetString("license"); err == nil && license != "" {
		config.License = license
	}
	if author, err := cmd.Flags().GetString("author"); err == nil && author != "" {
		config.Author = author
	}
	if version, err := cmd.Flags().GetString("version"); err == nil {
		config.Version = version
	}
	if dirForm, err := cmd.Flags().GetBool("dir"); err == nil {
		config.DirForm = dirForm
	}
	return config
}
