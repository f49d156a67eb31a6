package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/ideaforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `init writes the commented default configuration to the path given by
--config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(rootOpts.configPath); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(os.Stderr, "Wrote %s\n", rootOpts.configPath)
		fmt.Fprintln(os.Stderr, "Set an API key in the file or through the environment before running.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
