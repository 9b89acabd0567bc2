package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillet-cli/skillet/pkg/importer"
	"github.com/skillet-cli/skillet/pkg/presenter"
)

type ImportConfig struct {
	Category    string
	Name        string
	Description string
	License     string
	Author      string
	DryRun      bool
}

func NewImportConfig() *ImportConfig {
	return &ImportConfig{
		Category: "imported",
		License:  viper.GetString("default.license"),
		Author:   viper.GetString("default.author"),
	}
}

var importCmd = &cobra.Command{
	Use:   "import <file.html>",
	Short: "Convert an HTML document into a skill",
	Long: `Import converts a local HTML file to Markdown, wraps it in skill front
matter, and writes it into the library. The first heading seeds the
description when none is given.

Examples:
  skillet import docs/style-guide.html --category writing
  skillet import notes.html --name incident-triage --dry-run`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getImportConfigFromFlags(cmd)

		result, err := importer.Import(importer.Request{
			SourcePath:  args[0],
			Category:    config.Category,
			Name:        config.Name,
			Description: config.Description,
			License:     config.License,
			Author:      config.Author,
		})
		if err != nil {
			presenter.Error(err, "Failed to import document")
			os.Exit(1)
		}

		if config.DryRun {
			fmt.Print(result.Content)
			return
		}

		path := result.TargetPath(libraryRoot(), config.Category)
		if err := result.Write(path); err != nil {
			presenter.Error(err, "Failed to write imported skill")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Imported %s as %s/%s", args[0], config.Category, result.Slug))
	},
}

func init() {
	defaults := NewImportConfig()
	importCmd.Flags().StringP("category", "c", defaults.Category, "Category for the imported skill")
	importCmd.Flags().String("name", defaults.Name, "Skill name (defaults to a slug of the file name)")
	importCmd.Flags().StringP("description", "d", defaults.Description, "Skill description (defaults to the first heading)")
	importCmd.Flags().String("license", defaults.License, "License identifier")
	importCmd.Flags().String("author", defaults.Author, "Author recorded in metadata")
	importCmd.Flags().Bool("dry-run", defaults.DryRun, "Print the generated document instead of writing it")
	rootCmd.AddCommand(importCmd)
}

func getImportConfigFromFlags(cmd *cobra.Command) *ImportConfig {
	config := NewImportConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil && category != "" {
		config.Category = category
	}
	if name, err := cmd.Flags().GetString("name"); err == nil {
		config.Name = name
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if license, err := cmd.Flags().GetString("license"); err == nil && license != "" {
		config.License = license
	}
	if author, err := cmd.Flags().GetString("author"); err == nil && author != "" {
		config.Author = author
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}
	return config
}
