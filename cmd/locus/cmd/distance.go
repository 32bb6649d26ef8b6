/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/geodesic"
)

// distanceCmd represents the distance command
var distanceCmd = &cobra.Command{
	Use:   "distance <lat1> <lon1> <lat2> <lon2>",
	Short: "Compute distance and bearing between two coordinates",
	Long: `Compute the geodesic distance and initial bearing between two coordinates.

Negative coordinates must follow "--" so they are not read as flags.

Example:
  locus distance 50.0875 14.4214 48.2082 16.3738
  locus distance --mode fast -- -33.8688 151.2093 -37.8136 144.9631`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat1, lon1, err := parseCoords(args[0], args[1])
		if err != nil {
			return err
		}
		lat2, lon2, err := parseCoords(args[2], args[3])
		if err != nil {
			return err
		}

		solver := container.GetSolver()
		if cmd.Flags().Changed("mode") {
			modeArg, _ := cmd.Flags().GetString("mode")
			mode, err := geodesic.ParseMode(modeArg)
			if err != nil {
				return err
			}
			solver = geodesic.NewSolver(mode, geodesic.WithRadius(container.GetConfig().Geodesic.FastRadius))
		}

		res := solver.Compute(lat1, lon1, lat2, lon2)
		cmd.Printf("Mode: %s\n", solver.Mode())
		cmd.Printf("Distance: %.3f m\n", res.Distance)
		cmd.Printf("Bearing: %.6f deg\n", geodesic.NormalizeBearing(res.Bearing))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distanceCmd)
	distanceCmd.Flags().String("mode", "", "Geodesic mode: precise or fast (default from config)")
}
