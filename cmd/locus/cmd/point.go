/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/location"
)

// parseCoords parses latitude and longitude arguments
func parseCoords(latArg, lonArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", latArg, err)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", lonArg, err)
	}
	return lat, lon, nil
}

func addPointFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("id", 0, "Fix ID")
	cmd.Flags().Int64("time", 0, "Fix time in unix milliseconds (default now)")
	cmd.Flags().Float64("alt", 0, "Altitude in meters")
	cmd.Flags().Float32("speed", 0, "Speed in m/s")
	cmd.Flags().Float32("bearing", 0, "Bearing in degrees")
	cmd.Flags().Float32("accuracy", 0, "Horizontal accuracy in meters")
	cmd.Flags().String("provider", "", "Fix provider, e.g. gps")
}

// pointFromFlags builds a location from coordinate arguments and point flags.
// Only flags given on the command line become attributes.
func pointFromFlags(cmd *cobra.Command, latArg, lonArg string) (*location.Location, error) {
	lat, lon, err := parseCoords(latArg, lonArg)
	if err != nil {
		return nil, err
	}

	l := location.New(lat, lon)
	flags := cmd.Flags()
	l.ID, _ = flags.GetInt64("id")
	l.Time, _ = flags.GetInt64("time")
	if !flags.Changed("time") {
		l.Time = time.Now().UnixMilli()
	}
	if flags.Changed("alt") {
		alt, _ := flags.GetFloat64("alt")
		l.SetAltitude(alt)
	}
	if flags.Changed("provider") {
		p, _ := flags.GetString("provider")
		l.SetProvider(p)
	}
	if flags.Changed("speed") {
		v, _ := flags.GetFloat32("speed")
		l.SetSpeed(v)
	}
	if flags.Changed("bearing") {
		v, _ := flags.GetFloat32("bearing")
		l.SetBearing(v)
	}
	if flags.Changed("accuracy") {
		v, _ := flags.GetFloat32("accuracy")
		l.SetAccuracyHorizontal(v)
	}
	return l, nil
}
