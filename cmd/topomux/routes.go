package main

import (
	"github.com/iti/topomux"
	"github.com/spf13/cobra"
)

var (
	routesCfgPath string
	routesOutPath string
)

// routesCmd represents the routes command
var routesCmd = &cobra.Command{
	Use:   "routes <topology file>",
	Short: "Compute forwarding tables over an exported topology",
	Long: `Reads a topology written by 'topomux run', computes forwarding tables using the route
section (restrictions, penalty, policy) of an experiment file, or of the default
experiment when none is given, and writes them out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ec := topomux.DefaultExpCfg()
		if routesCfgPath != "" {
			var err error
			ec, err = topomux.ReadExpCfg(routesCfgPath, topomux.UseYAML(routesCfgPath), nil)
			if err != nil {
				return err
			}
		}

		td, err := topomux.ReadTopoDesc(args[0], topomux.UseYAML(args[0]), nil)
		if err != nil {
			return err
		}
		topo, err := td.Build()
		if err != nil {
			return err
		}

		routes, err := ec.Routes.ConfigureRoutes(topo)
		if err != nil {
			return err
		}
		if err := routes.CalculateRoutes(); err != nil {
			return err
		}
		reportUnreachable(routes)

		rtd, err := routes.ExportRoutes(td)
		if err != nil {
			return err
		}
		return rtd.WriteToFile(routesOutPath)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVarP(&routesCfgPath, "config", "c", "", "experiment file supplying the route section")
	routesCmd.Flags().StringVarP(&routesOutPath, "out", "o", "icens-routing-tables.txt", "file the routing tables are written to")
}
