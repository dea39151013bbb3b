package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trolley",
	Short: "Trolley is a museum streetcar driving simulator",
	Long: `Trolley lets visitors drive a streetcar down a filmed line. The operator
panel controls the speed of the video; safety rules stop the car when broken.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
}
