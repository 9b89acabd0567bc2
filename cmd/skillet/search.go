package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/search"
)

type SearchConfig struct {
	Category  string
	Limit     int
	Fuzziness int
	Highlight bool
	Ephemeral bool
}

func NewSearchConfig() *SearchConfig {
	return &SearchConfig{
		Limit: search.DefaultLimit,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the skill library",
	Long: `Search skill names, descriptions, and bodies. Uses the on-disk index
maintained by "skillet index"; --ephemeral builds a throwaway in-memory
index from the library instead.

Examples:
  skillet search "rate limiting"
  skillet search debug --category debugging --fuzzy 1
  skillet search translation --highlight`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSearchConfigFromFlags(cmd)
		query := strings.Join(args, " ")

		var (
			index *search.Index
			err   error
		)
		if config.Ephemeral {
			index, err = search.OpenMemory()
			if err == nil {
				library, loadErr := loadLibrary(ctx)
				if loadErr != nil {
					presenter.Error(loadErr, "Failed to load skill library")
					os.Exit(1)
				}
				_, err = index.Sync(ctx, library)
			}
		} else {
			var indexPath string
			indexPath, err = search.DefaultIndexPath(libraryRoot())
			if err == nil {
				index, err = search.Open(indexPath)
			}
		}
		if err != nil {
			presenter.Error(err, "Failed to open search index")
			os.Exit(1)
		}
		defer index.Close()

		if count, countErr := index.Count(); countErr == nil && count == 0 && !config.Ephemeral {
			presenter.Warning("Search index is empty, run 'skillet index' first or pass --ephemeral")
		}

		result, err := index.Search(ctx, search.Query{
			Text:      query,
			Category:  config.Category,
			Limit:     config.Limit,
			Fuzziness: config.Fuzziness,
			Highlight: config.Highlight,
		})
		if err != nil {
			presenter.Error(err, "Search failed")
			os.Exit(1)
		}

		if len(result.Hits) == 0 {
			presenter.Info("No skills matched")
			return
		}

		presenter.Info(fmt.Sprintf("%d result(s) in %s", result.Total, result.Took))
		for i, hit := range result.Hits {
			fmt.Printf("%2d. %s  %s\n", i+1, hit.Key, hit.Description)
			if config.Highlight {
				for field, fragments := range hit.Fragments {
					for _, fragment := range fragments {
						fmt.Printf("      %s: %s\n", field, strings.TrimSpace(fragment))
					}
				}
			}
		}

		if len(result.Categories) > 1 {
			presenter.Separator()
			for _, bucket := range result.Categories {
				presenter.Info(fmt.Sprintf("%s: %d", bucket.Category, bucket.Count))
			}
		}
	},
}

func init() {
	defaults := NewSearchConfig()
	searchCmd.Flags().StringP("category", "c", defaults.Category, "Restrict results to one category")
	searchCmd.Flags().IntP("limit", "n", defaults.Limit, "Maximum number of results")
	searchCmd.Flags().Int("fuzzy", defaults.Fuzziness, "Term edit distance for fuzzy matching")
	searchCmd.Flags().Bool("highlight", defaults.Highlight, "Show highlighted matching fragments")
	searchCmd.Flags().Bool("ephemeral", defaults.Ephemeral, "Search an in-memory index built from the library")
	rootCmd.AddCommand(searchCmd)
}

func getSearchConfigFromFlags(cmd *cobra.Command) *SearchConfig {
	config := NewSearchConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if fuzzy, err := cmd.Flags().GetInt("fuzzy"); err == nil {
		config.Fuzziness = fuzzy
	}
	if highlight, err := cmd.Flags().GetBool("highlight"); err == nil {
		config.Highlight = highlight
	}
	if ephemeral, err := cmd.Flags().GetBool("ephemeral"); err == nil {
		config.Ephemeral = ephemeral
	}
	return config
}
