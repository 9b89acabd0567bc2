package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/search"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	IgnoreDirs   []string
	DebounceTime int
	NoIndex      bool
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		IgnoreDirs:   []string{".git", "node_modules"},
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return fmt.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-lint and re-index skills as they change on disk",
	Long: `Watch monitors the library root and, whenever a skill file is written,
lints it and refreshes the catalog and search index. Useful while
authoring skills in an editor.

Examples:
  skillet watch
  skillet watch --debounce 1000 --no-index`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		runWatchMode(ctx, config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("ignore", "i", defaults.IgnoreDirs, "Directories to ignore")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
	watchCmd.Flags().Bool("no-index", defaults.NoIndex, "Lint only, skip catalog and search index updates")
	rootCmd.AddCommand(watchCmd)
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore"); err == nil {
		config.IgnoreDirs = ignoreDirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}
	if noIndex, err := cmd.Flags().GetBool("no-index"); err == nil {
		config.NoIndex = noIndex
	}

	return config
}

func runWatchMode(ctx context.Context, config *WatchConfig) {
	root := libraryRoot()

	linter, err := lint.New()
	if err != nil {
		presenter.Error(err, "Failed to configure linter")
		os.Exit(1)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		logger.G(ctx).WithError(err).Fatal("Failed to create file watcher")
	}
	defer watcher.Close()

	// Setup debouncing mechanism
	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)

	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(config.DebounceTime)*time.Millisecond)

	// Process events
	go func() {
		for {
			select {
			case event, ok := <-debouncedEvents:
				if !ok {
					return
				}
				presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
				logger.G(ctx).WithFields(map[string]interface{}{
					"file":      event.Path,
					"operation": event.Op.String(),
				}).Debug("File change detected")
				processSkillChange(ctx, linter, event.Path, config)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watch for events
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if skipWatchEvent(event.Name, config.IgnoreDirs) {
					continue
				}
				// New subdirectories need their own watch
				if event.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if addErr := watcher.Add(event.Name); addErr != nil {
							logger.G(ctx).WithError(addErr).WithField("directory", event.Name).Warn("Failed to watch new directory")
						}
						continue
					}
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !strings.HasSuffix(event.Name, ".md") {
					continue
				}
				events <- FileEvent{
					Path: event.Name,
					Op:   event.Op,
					Time: time.Now(),
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "File watcher error")
				logger.G(ctx).WithError(err).Error("Error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	// Add the library root and its subdirectories to the watcher
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if skipWatchEvent(path+string(os.PathSeparator), config.IgnoreDirs) {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("Adding directory to watcher")
		return watcher.Add(path)
	})
	if err != nil {
		presenter.Error(err, "Failed to watch library")
		logger.G(ctx).WithError(err).Fatal("Failed to watch library")
	}

	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", root))

	<-ctx.Done()
}

func skipWatchEvent(path string, ignoreDirs []string) bool {
	for _, ignoreDir := range ignoreDirs {
		if strings.Contains(path, ignoreDir+string(os.PathSeparator)) || filepath.Base(strings.TrimRight(path, string(os.PathSeparator))) == ignoreDir {
			return true
		}
	}
	return false
}

// Debounce file events to prevent processing multiple rapid changes to the same file
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	var pending = make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-input:
			if !ok {
				for _, timer := range pending {
					timer.Stop()
				}
				return
			}
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
				delete(pending, event.Path)
			}

			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
		case <-ctx.Done():
			for _, timer := range pending {
				timer.Stop()
			}
			return
		}
	}
}

// Lint the changed document and refresh the catalog and search index
func processSkillChange(ctx context.Context, linter *lint.Linter, path string, config *WatchConfig) {
	doc, err := skilldoc.ParseFile(path)
	if err != nil {
		presenter.Warning(fmt.Sprintf("%s: %v", path, err))
	} else {
		findings := linter.LintDocument(doc)
		for _, finding := range findings {
			location := path
			if finding.Line > 0 {
				location = fmt.Sprintf("%s:%d", path, finding.Line)
			}
			presenter.Warning(fmt.Sprintf("%s [%s] %s", location, finding.Rule, finding.Message))
		}
		if len(findings) == 0 {
			presenter.Success(fmt.Sprintf("%s ok", path))
		}
	}

	if config.NoIndex {
		return
	}

	library, err := loadLibrary(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Error("Failed to reload library")
		return
	}

	if store, openErr := catalog.OpenDefault(ctx, libraryRoot()); openErr != nil {
		logger.G(ctx).WithError(openErr).Warn("catalog unavailable")
	} else {
		if _, syncErr := store.Sync(ctx, library); syncErr != nil {
			logger.G(ctx).WithError(syncErr).Error("catalog sync failed")
		}
		store.Close()
	}

	indexPath, err := search.DefaultIndexPath(libraryRoot())
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to resolve search index path")
		return
	}
	if index, openErr := search.Open(indexPath); openErr != nil {
		logger.G(ctx).WithError(openErr).Warn("search index unavailable")
	} else {
		if _, syncErr := index.Sync(ctx, library); syncErr != nil {
			logger.G(ctx).WithError(syncErr).Error("search index sync failed")
		}
		index.Close()
	}
}
