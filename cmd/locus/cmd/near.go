/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/storage"
)

// nearCmd represents the near command
var nearCmd = &cobra.Command{
	Use:   "near <lat> <lon>",
	Short: "Find stored points in the same geohash cell",
	Long: `Find stored points whose geohash shares the query's prefix, nearest first.

Example:
  locus near 50.0875 14.4214 --precision 6`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseCoords(args[0], args[1])
		if err != nil {
			return err
		}
		precision := container.GetConfig().Geohash.Precision
		if cmd.Flags().Changed("precision") {
			precision, _ = cmd.Flags().GetInt("precision")
		}

		return withRepository(func(repo *storage.Repository) error {
			hits, err := repo.Near(lat, lon, precision)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				cmd.Printf("No points near %.6f, %.6f\n", lat, lon)
				return nil
			}
			for _, h := range hits {
				cmd.Printf("%10.3f m  %s #%d  %.6f, %.6f\n", h.Distance, h.TrackID, h.Index, h.Point.Latitude(), h.Point.Longitude())
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(nearCmd)
	nearCmd.Flags().Int("precision", 0, "Geohash precision in characters (default from config)")
}
