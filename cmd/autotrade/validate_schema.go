package main

import (
	"fmt"

	"autotrade/internal/schema"

	"github.com/spf13/cobra"
)

func newValidateSchemaCmd() *cobra.Command {
	var schemaPath, samplePath string
	cmd := &cobra.Command{
		Use:   "validate-schema",
		Short: "Validate the sample BarRow document against the JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := schema.ValidateFiles(schemaPath, samplePath); err != nil {
				return err
			}
			if _, err := schema.DecodeBarRow(samplePath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema validation passed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", schema.DefaultSchemaPath, "JSON schema path")
	cmd.Flags().StringVar(&samplePath, "sample", schema.DefaultSamplePath, "sample document path")
	return withoutConfig(cmd)
}
