package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/presenter"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of skill front matter",
	Long: `Schema emits a JSON schema describing valid skill front matter, for use
by editors and external validators.`,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		schema := reflector.Reflect(skilldoc.Manifest{})

		output, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to encode schema")
			os.Exit(1)
		}
		fmt.Println(string(output))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
