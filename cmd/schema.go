package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/schema"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema [category]",
	Short: "Print the effective field schemas",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(schemaFormat); err != nil {
			return err
		}
		reg, err := schema.Load(cfg.Schema.Path)
		if err != nil {
			return err
		}

		cats := reg.Categories()
		if len(args) == 1 {
			c, ok := record.ParseCategory(args[0])
			if !ok {
				return eris.Errorf("unknown category %q", args[0])
			}
			cats = []record.Category{c}
		}

		var schemas []*schema.Schema
		for _, c := range cats {
			if s, ok := reg.Get(c); ok {
				schemas = append(schemas, s)
			}
		}

		if schemaFormat == formatJSON {
			return writeJSON(cmd.OutOrStdout(), schemas)
		}
		formatSchemas(cmd.OutOrStdout(), schemas)
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaFormat, "format", formatText, "output format: json or text")
	rootCmd.AddCommand(schemaCmd)
}
