// Package cmd implements the archboard command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "archboard",
	Short:   "archboard — AI-assisted architecture diagram engine",
	Long:    "archboard manages architecture diagram projects: apply edit operations,\ncompute layouts, validate structure, and serve the HTTP API.",
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate("archboard {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(
		serveCmd(),
		layoutCmd(),
		applyCmd(),
		validateCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
