// Package packs installs collections of skill documents into a library.
// A pack source is a directory or git repository laid out like a small
// library; installation stages the source, lints every contained document,
// and copies the pack into the library under its own category directory
// with a marker file recording provenance.
package packs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/logger"
)

// MarkerFileName records pack provenance inside the installed directory
const MarkerFileName = ".skillet-pack.yaml"

const cloneAttempts = 3

// Pack is the provenance record of one installed pack
type Pack struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Source      string    `yaml:"source"`
	Ref         string    `yaml:"ref,omitempty"`
	InstalledAt time.Time `yaml:"installedAt"`
	Skills      []string  `yaml:"skills"`
}

// Installer installs packs into a library root
type Installer struct {
	root   string
	force  bool
	linter *lint.Linter
}

// Option is a function that configures an Installer
type Option func(*Installer)

// WithForce replaces an already installed pack of the same name
func WithForce(force bool) Option {
	return func(i *Installer) {
		i.force = force
	}
}

// NewInstaller creates an installer for the given library root
func NewInstaller(root string, opts ...Option) (*Installer, error) {
	linter, err := lint.New()
	if err != nil {
		return nil, err
	}

	i := &Installer{root: root, linter: linter}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Add stages the pack source, lints it, and installs it into the library.
// Sources failing error-level lint are refused outright.
func (i *Installer) Add(ctx context.Context, source, ref string) (*Pack, error) {
	stageDir, cleanup, err := i.stage(ctx, source, ref)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	library, err := corpus.Load(ctx, stageDir)
	if err != nil {
		return nil, err
	}
	if len(library.Files) == 0 {
		return nil, errors.Errorf("no skill documents found in %s", source)
	}

	report := i.linter.LintLibrary(ctx, library)
	if report.Failed() {
		return nil, errors.Errorf("pack failed lint with %d error(s), fix the source or run skillet lint on it", report.Errors())
	}

	name := PackName(source)
	destDir := filepath.Join(i.root, name)

	if _, err := os.Stat(destDir); err == nil {
		if !i.force {
			return nil, errors.Errorf("pack %q is already installed, use --force to replace it", name)
		}
		if err := os.RemoveAll(destDir); err != nil {
			return nil, errors.Wrapf(err, "failed to remove existing pack %q", name)
		}
	}

	pack := &Pack{
		ID:          uuid.NewString(),
		Name:        name,
		Source:      source,
		Ref:         ref,
		InstalledAt: time.Now(),
	}

	for _, f := range library.Files {
		if f.Doc == nil {
			continue
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(f.RelPath))
		if err := copyFile(f.Path, destPath); err != nil {
			os.RemoveAll(destDir)
			return nil, errors.Wrapf(err, "failed to install %s", f.RelPath)
		}
		pack.Skills = append(pack.Skills, f.Doc.Key())
	}
	sort.Strings(pack.Skills)

	if err := writeMarker(destDir, pack); err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}

	logger.G(ctx).WithField("pack", name).WithField("skills", len(pack.Skills)).Info("pack installed")
	return pack, nil
}

// List returns the installed packs, sorted by name
func (i *Installer) List() ([]Pack, error) {
	entries, err := os.ReadDir(i.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read library root")
	}

	var packs []Pack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pack, err := readMarker(filepath.Join(i.root, entry.Name(), MarkerFileName))
		if err != nil {
			continue
		}
		packs = append(packs, *pack)
	}

	sort.Slice(packs, func(a, b int) bool {
		return packs[a].Name < packs[b].Name
	})
	return packs, nil
}

// Remove uninstalls a pack by name. Directories without a marker file are
// never removed: hand-authored categories are not packs.
func (i *Installer) Remove(name string) error {
	packDir := filepath.Join(i.root, name)
	if _, err := readMarker(filepath.Join(packDir, MarkerFileName)); err != nil {
		return errors.Errorf("pack %q is not installed", name)
	}
	if err := os.RemoveAll(packDir); err != nil {
		return errors.Wrapf(err, "failed to remove pack %q", name)
	}
	return nil
}

// stage makes the pack source available as a local directory. Remote
// sources are cloned shallowly with retries; local directories are used
// in place.
func (i *Installer) stage(ctx context.Context, source, ref string) (dir string, cleanup func(), err error) {
	if !IsRemote(source) {
		info, err := os.Stat(source)
		if err != nil {
			return "", nil, errors.Wrapf(err, "pack source %s not found", source)
		}
		if !info.IsDir() {
			return "", nil, errors.Errorf("pack source %s is not a directory", source)
		}
		return source, func() {}, nil
	}

	tmpDir, err := os.MkdirTemp("", "skillet-pack-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create staging directory")
	}
	cleanup = func() { os.RemoveAll(tmpDir) }

	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref, "--single-branch")
	}
	args = append(args, source, tmpDir)

	err = retry.Do(
		func() error {
			// clean between attempts so git sees an empty target
			if err := os.RemoveAll(tmpDir); err != nil {
				return err
			}
			cmd := exec.CommandContext(ctx, "git", args...)
			if output, err := cmd.CombinedOutput(); err != nil {
				return errors.Wrapf(err, "git clone failed: %s", strings.TrimSpace(string(output)))
			}
			return nil
		},
		retry.Attempts(cloneAttempts),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying pack clone")
		}),
	)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	return tmpDir, cleanup, nil
}

// IsRemote reports whether the source needs a git clone
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "ssh://") ||
		strings.HasPrefix(source, "git@")
}

// PackName derives the installed category name from a pack source
func PackName(source string) string {
	name := strings.TrimSuffix(filepath.Base(strings.TrimRight(source, "/")), ".git")
	if idx := strings.LastIndex(name, ":"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

func writeMarker(dir string, pack *Pack) error {
	data, err := yaml.Marshal(pack)
	if err != nil {
		return errors.Wrap(err, "failed to encode pack marker")
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerFileName), data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write pack marker")
	}
	return nil
}

func readMarker(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pack := &Pack{}
	if err := yaml.Unmarshal(data, pack); err != nil {
		return nil, errors.Wrapf(err, "invalid pack marker %s", path)
	}
	if pack.Name == "" {
		return nil, errors.Errorf("pack marker %s has no name", path)
	}
	return pack, nil
}

func copyFile(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o644)
}
