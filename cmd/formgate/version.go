package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/bootstrap"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("formgate", bootstrap.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
