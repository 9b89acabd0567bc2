package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/search"
)

type IndexConfig struct {
	Rebuild     bool
	SkipCatalog bool
	SkipSearch  bool
}

func NewIndexConfig() *IndexConfig {
	return &IndexConfig{}
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Sync the catalog and search index with the library",
	Long: `Index scans the library and brings the SQLite catalog and the bleve
search index up to date. Unchanged documents (by checksum) are skipped;
--rebuild drops the search index first and indexes everything.

Examples:
  skillet index
  skillet index --rebuild`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getIndexConfigFromFlags(cmd)

		library, err := loadLibrary(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}
		if failed := library.Failed(); len(failed) > 0 {
			presenter.Warning(fmt.Sprintf("%d document(s) failed to parse and will be skipped", len(failed)))
		}

		if !config.SkipCatalog {
			store, err := catalog.OpenDefault(ctx, libraryRoot())
			if err != nil {
				presenter.Error(err, "Failed to open catalog")
				os.Exit(1)
			}
			result, err := store.Sync(ctx, library)
			store.Close()
			if err != nil {
				presenter.Error(err, "Catalog sync failed")
				os.Exit(1)
			}
			presenter.Success(fmt.Sprintf("Catalog: %d inserted, %d updated, %d unchanged, %d removed",
				result.Inserted, result.Updated, result.Unchanged, result.Removed))
		}

		if !config.SkipSearch {
			indexPath, err := search.DefaultIndexPath(libraryRoot())
			if err != nil {
				presenter.Error(err, "Failed to resolve search index path")
				os.Exit(1)
			}
			index, err := search.Open(indexPath)
			if err != nil {
				presenter.Error(err, "Failed to open search index")
				os.Exit(1)
			}
			if config.Rebuild {
				if err := index.Destroy(); err != nil {
					presenter.Error(err, "Failed to drop search index")
					os.Exit(1)
				}
				index, err = search.Open(indexPath)
				if err != nil {
					presenter.Error(err, "Failed to recreate search index")
					os.Exit(1)
				}
			}
			result, err := index.Sync(ctx, library)
			index.Close()
			if err != nil {
				presenter.Error(err, "Search index sync failed")
				os.Exit(1)
			}
			presenter.Success(fmt.Sprintf("Search index: %d indexed, %d unchanged, %d removed",
				result.Indexed, result.Unchanged, result.Removed))
		}
	},
}

func init() {
	defaults := NewIndexConfig()
	indexCmd.Flags().Bool("rebuild", defaults.Rebuild, "Drop the search index and reindex everything")
	indexCmd.Flags().Bool("skip-catalog", defaults.SkipCatalog, "Only sync the search index")
	indexCmd.Flags().Bool("skip-search", defaults.SkipSearch, "Only sync the catalog")
	rootCmd.AddCommand(withTracing(indexCmd))
}

func getIndexConfigFromFlags(cmd *cobra.Command) *IndexConfig {
	config := NewIndexConfig()
	if rebuild, err := cmd.Flags().GetBool("rebuild"); err == nil {
		config.Rebuild = rebuild
	}
	if skipCatalog, err := cmd.Flags().GetBool("skip-catalog"); err == nil {
		config.SkipCatalog = skipCatalog
	}
	if skipSearch, err := cmd.Flags().GetBool("skip-search"); err == nil {
		config.SkipSearch = skipSearch
	}
	return config
}
