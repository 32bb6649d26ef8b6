/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/storage"
	"github.com/ssargent/locus/pkg/track"
)

// trackCmd represents the track command group
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage stored tracks",
}

// withRepository opens the repository for the duration of fn
func withRepository(fn func(repo *storage.Repository) error) error {
	repo, err := container.OpenRepository()
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer repo.Close()
	return fn(repo)
}

func parseTrackID(arg string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(arg)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("invalid track id %q: %w", arg, err)
	}
	return id, nil
}

var trackCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		return withRepository(func(repo *storage.Repository) error {
			t := track.New(args[0])
			t.Description = description
			t.Style = track.DefaultStyle()
			if _, err := repo.CreateTrack(t); err != nil {
				return err
			}
			cmd.Printf("%s\n", t.ID)
			return nil
		})
	},
}

var trackAddCmd = &cobra.Command{
	Use:   "add <id> <lat> <lon>",
	Short: "Append a fix to a track",
	Long: `Append a fix to a track.

Example:
  locus track add 2ZyQ0x2U3zZ6eGZ5w4NwRzZzVvQ 50.0875 14.4214 --provider gps --speed 3.5`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTrackID(args[0])
		if err != nil {
			return err
		}
		p, err := pointFromFlags(cmd, args[1], args[2])
		if err != nil {
			return err
		}
		return withRepository(func(repo *storage.Repository) error {
			t, err := repo.AppendPoints(id, p)
			if err != nil {
				return err
			}
			cmd.Printf("Track %s now has %d points\n", t.ID, len(t.Points))
			return nil
		})
	},
}

var trackShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a track and its points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTrackID(args[0])
		if err != nil {
			return err
		}
		return withRepository(func(repo *storage.Repository) error {
			t, err := repo.GetTrack(id)
			if err != nil {
				return err
			}
			cmd.Printf("ID: %s\n", t.ID)
			cmd.Printf("Name: %s\n", t.Name)
			if t.Description != "" {
				cmd.Printf("Description: %s\n", t.Description)
			}
			cmd.Printf("Points: %d\n", len(t.Points))
			cmd.Printf("Length: %.3f m\n", t.Length(container.GetSolver()))
			if b, ok := t.Bounds(); ok {
				cmd.Printf("Bounds: [%.6f, %.6f] - [%.6f, %.6f]\n", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
			}
			for i, p := range t.Points {
				cmd.Printf("  %d: %s\n", i, p)
			}
			return nil
		})
	},
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(repo *storage.Repository) error {
			tracks, err := repo.ListTracks()
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				cmd.Printf("No tracks\n")
				return nil
			}
			for _, t := range tracks {
				cmd.Printf("%s  %-20s %5d points %12.3f m\n", t.ID, t.Name, len(t.Points), t.Length(container.GetSolver()))
			}
			return nil
		})
	},
}

var trackDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a track and its point index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTrackID(args[0])
		if err != nil {
			return err
		}
		return withRepository(func(repo *storage.Repository) error {
			if err := repo.DeleteTrack(id); err != nil {
				return err
			}
			cmd.Printf("Deleted track %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.AddCommand(trackCreateCmd, trackAddCmd, trackShowCmd, trackListCmd, trackDeleteCmd)

	trackCreateCmd.Flags().String("description", "", "Track description")
	addPointFlags(trackAddCmd)
}
