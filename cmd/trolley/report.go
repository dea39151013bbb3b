package main

import (
	"os"

	"github.com/scrm/trolley/internal/cli"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [log]",
	Short: "Summarize an event log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		plain, _ := cmd.Flags().GetBool("plain")
		return cli.RunReport(path, plain, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("plain", false, "Print markdown instead of rendering it")
}
