package main

import (
	"os"

	"github.com/scrm/trolley/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a driving session",
	Long: `Starts the simulator. By default the keyboard drives the panel; --script
replays a timed list of actions and --headless runs without a console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Mode, _ = cmd.Flags().GetString("mode")
		opts.LogPath, _ = cmd.Flags().GetString("log")
		opts.ScriptPath, _ = cmd.Flags().GetString("script")
		opts.Tick, _ = cmd.Flags().GetDuration("tick")
		opts.Diagnostics, _ = cmd.Flags().GetString("diagnostics")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Headless, _ = cmd.Flags().GetBool("headless")

		return cli.RunSession(opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("mode", "m", "", "Operating mode: easy, start_stop or full")
	runCmd.Flags().String("log", "", "Event log file (default in the temp directory)")
	runCmd.Flags().String("script", "", "Replay a YAML action script")
	runCmd.Flags().Duration("tick", 0, "Tick interval (default 100ms)")
	runCmd.Flags().String("diagnostics", "", "Serve read-only diagnostics on a loopback address, e.g. 127.0.0.1:9100")
	runCmd.Flags().Bool("debug", false, "Write debug logs to stderr")
	runCmd.Flags().Bool("headless", false, "Run without the keyboard console")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
