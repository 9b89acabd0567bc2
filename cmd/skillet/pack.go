package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/packs"
	"github.com/skillet-cli/skillet/pkg/presenter"
)

type PackAddConfig struct {
	Ref   string
	Force bool
}

func NewPackAddConfig() *PackAddConfig {
	return &PackAddConfig{}
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage skill packs installed into the library",
	Long: `Packs are directories of skills installed from a git repository or a
local directory. Each installed pack becomes its own category under the
library root, tracked by a marker file.`,
}

var packAddCmd = &cobra.Command{
	Use:   "add <source>",
	Short: "Install a pack from a git URL or local directory",
	Long: `Add clones (or copies) the source, lints it, and refuses to install a
pack with lint errors.

Examples:
  skillet pack add https://github.com/example/writing-skills
  skillet pack add git@github.com:example/skills.git --ref v1.2.0
  skillet pack add ../shared-skills --force`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getPackAddConfigFromFlags(cmd)

		installer, err := packs.NewInstaller(libraryRoot(), packs.WithForce(config.Force))
		if err != nil {
			presenter.Error(err, "Failed to initialize pack installer")
			os.Exit(1)
		}

		pack, err := installer.Add(ctx, args[0], config.Ref)
		if err != nil {
			presenter.Error(err, "Failed to install pack")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Installed pack %s with %d skill(s)", pack.Name, len(pack.Skills)))
	},
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packs",
	Run: func(cmd *cobra.Command, args []string) {
		installer, err := packs.NewInstaller(libraryRoot())
		if err != nil {
			presenter.Error(err, "Failed to initialize pack installer")
			os.Exit(1)
		}

		installed, err := installer.List()
		if err != nil {
			presenter.Error(err, "Failed to list packs")
			os.Exit(1)
		}
		if len(installed) == 0 {
			presenter.Info("No packs installed")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSOURCE\tREF\tSKILLS\tINSTALLED")
		for _, pack := range installed {
			ref := pack.Ref
			if ref == "" {
				ref = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				pack.Name, pack.Source, ref, len(pack.Skills), pack.InstalledAt.Format("2006-01-02"))
		}
		w.Flush()
	},
}

var packRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an installed pack",
	Long:  `Remove deletes the pack's directory. Directories without a pack marker are left alone.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		installer, err := packs.NewInstaller(libraryRoot())
		if err != nil {
			presenter.Error(err, "Failed to initialize pack installer")
			os.Exit(1)
		}

		if err := installer.Remove(args[0]); err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to remove pack %q", args[0]))
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Removed pack %s", args[0]))
	},
}

func init() {
	defaults := NewPackAddConfig()
	packAddCmd.Flags().String("ref", defaults.Ref, "Git branch or tag to install")
	packAddCmd.Flags().Bool("force", defaults.Force, "Reinstall over an existing pack")
	packCmd.AddCommand(packAddCmd)
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packRemoveCmd)
	rootCmd.AddCommand(packCmd)
}

func getPackAddConfigFromFlags(cmd *cobra.Command) *PackAddConfig {
	config := NewPackAddConfig()
	if ref, err := cmd.Flags().GetString("ref"); err == nil {
		config.Ref = ref
	}
	if force, err := cmd.Flags().GetBool("force"); err == nil {
		config.Force = force
	}
	return config
}
