package main

import (
	"os"

	"github.com/scrm/trolley/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [mode]",
	Short: "Export the state diagram",
	Long:  `Outputs a Mermaid diagram (stateDiagram-v2) of the operating states and the changes legal in a mode.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "easy"
		if len(args) > 0 {
			mode = args[0]
		}
		return cli.RunGraph(mode, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
