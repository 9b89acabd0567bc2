package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of Skillet.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()

		if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil && jsonOutput {
			json, err := info.JSON()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting version info: %s\n", err)
				os.Exit(1)
			}
			fmt.Println(json)
			return
		}
		fmt.Println(info.String())
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Output version information as JSON")
	rootCmd.AddCommand(versionCmd)
}
