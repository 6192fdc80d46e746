package main

import (
	"github.com/iti/rngstream"
	"github.com/iti/topomux"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [experiment file]",
	Short: "Generate, join and route an experiment",
	Long: `Builds the layers an experiment file describes, joins them, adds the physical layer,
computes the forwarding tables, reports unreachable prefixes, and writes the topology
and routing tables to the output files the experiment names.  Without an experiment
file the default experiment is run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ec := topomux.DefaultExpCfg()
		if len(args) == 1 {
			var err error
			ec, err = topomux.ReadExpCfg(args[0], topomux.UseYAML(args[0]), nil)
			if err != nil {
				return err
			}
		}

		logger := topomux.Logger()
		exp, err := topomux.RunExperiment(ec, rngstream.New(ec.Name), logger)
		if err != nil {
			return err
		}
		reportUnreachable(exp.Routes)
		return exp.WriteOutputs()
	},
}

// reportUnreachable logs every node that cannot reach a prefix
func reportUnreachable(routes *topomux.IcnRoutes) {
	logger := topomux.Logger()
	for _, key := range routes.Unreachable() {
		logger.Warn("prefix unreachable", "node", key.Node.Name(), "prefix", key.Prefix.String())
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}
