package main

import (
	"os"

	"github.com/scrm/trolley/internal/cli"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Loads --config over the defaults, validates it and prints the result as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		return cli.RunConfig(path, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
