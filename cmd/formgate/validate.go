package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and endpoint formats",
	Long: `Validate the configuration file and every endpoint declaration.

Catches authoring faults before they become request-time 500s:
  - unparseable format descriptors
  - array descriptors with no element template
  - GET endpoints declaring non-string fields
  - duplicate paths`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	table, err := cfg.Table()
	if err != nil {
		return err
	}

	for _, ep := range table.All() {
		methods := ep.Methods
		if methods == "" {
			methods = "all"
		}
		fmt.Printf("  %-6s %-30s handler=%s\n", methods, ep.Path, ep.Handler)
	}
	fmt.Printf("OK: %d endpoints\n", len(table.All()))
	return nil
}
