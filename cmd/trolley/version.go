package main

import (
	"fmt"

	"github.com/scrm/trolley"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of trolley",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trolley version %s\n", trolley.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
