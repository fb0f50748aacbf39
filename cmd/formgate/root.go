package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "formgate",
	Short: "Format-validated HTTP gateway with token auth and typed handlers",
	Long: `FormGate routes HTTP requests through format-descriptor validation
before they reach a handler. Endpoints declare the shape of their query or
body once; the same descriptor drives runtime validation and generated
handler payload types.

Quick start:
  formgate serve       # Start the server
  formgate validate    # Check endpoint configuration
  formgate types       # Generate Go types for endpoint formats`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "formgate.yaml", "config file path")
}
