package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

type ListConfig struct {
	Category   string
	Filter     string
	ShowPath   bool
	JSONOutput bool
}

func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills in the library",
	Long: `List the skills in the library with their keys, names, and descriptions.

Examples:
  skillet list
  skillet list --category writing-and-content
  skillet list --filter 'api-*/**' --json`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		docs := reg.Documents()
		if config.Category != "" {
			docs = reg.FilterCategory(config.Category)
		}
		if config.Filter != "" {
			matched, err := reg.FilterGlob(config.Filter)
			if err != nil {
				presenter.Error(err, "Invalid filter pattern")
				os.Exit(1)
			}
			if config.Category != "" {
				matched = filterByCategory(matched, config.Category)
			}
			docs = matched
		}

		if config.JSONOutput {
			renderListJSON(docs)
			return
		}

		if len(docs) == 0 {
			presenter.Info("No skills found")
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if config.ShowPath {
			fmt.Fprintln(tw, "KEY\tNAME\tPATH\tDESCRIPTION")
		} else {
			fmt.Fprintln(tw, "KEY\tNAME\tDESCRIPTION")
		}
		for _, doc := range docs {
			description := doc.Description
			if len(description) > 60 {
				description = description[:57] + "..."
			}
			if config.ShowPath {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", doc.Key(), doc.Name, doc.Path, description)
			} else {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.Key(), doc.Name, description)
			}
		}
		tw.Flush()
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().StringP("category", "c", defaults.Category, "Only list skills in this category")
	listCmd.Flags().StringP("filter", "f", defaults.Filter, "Glob pattern matched against skill keys")
	listCmd.Flags().Bool("path", defaults.ShowPath, "Show document paths")
	listCmd.Flags().Bool("json", defaults.JSONOutput, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if filter, err := cmd.Flags().GetString("filter"); err == nil {
		config.Filter = filter
	}
	if showPath, err := cmd.Flags().GetBool("path"); err == nil {
		config.ShowPath = showPath
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	return config
}

func filterByCategory(docs []*skilldoc.Document, category string) []*skilldoc.Document {
	filtered := make([]*skilldoc.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Category == category {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}

type listEntry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	License     string `json:"license,omitempty"`
	Author      string `json:"author,omitempty"`
	Version     string `json:"version,omitempty"`
	Path        string `json:"path"`
}

func renderListJSON(docs []*skilldoc.Document) {
	entries := make([]listEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, listEntry{
			Key:         doc.Key(),
			Name:        doc.Name,
			Description: doc.Description,
			Category:    doc.Category,
			License:     doc.License,
			Author:      doc.Author(),
			Version:     doc.Version(),
			Path:        doc.Path,
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		presenter.Error(err, "Failed to encode skill list")
		os.Exit(1)
	}
}
