package main

import (
	"github.com/iti/topomux"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config <file>",
	Short: "Write the default experiment file",
	Long:  `Writes the default experiment to a .yaml or .json file, as a starting point for new experiments.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return topomux.DefaultExpCfg().WriteToFile(args[0])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
