/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/storage"
	"github.com/ssargent/locus/pkg/track"
)

// bundleCmd represents the bundle command group
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Export and import track bundles",
}

var bundleExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every stored track into one bundle file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(repo *storage.Repository) error {
			tracks, err := repo.ListTracks()
			if err != nil {
				return err
			}
			b := &track.Bundle{}
			for _, t := range tracks {
				if err := b.Add(t); err != nil {
					return err
				}
			}
			data, err := track.EncodeBundle(b)
			if err != nil {
				return fmt.Errorf("failed to encode bundle: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			cmd.Printf("Exported %d tracks (%d bytes)\n", len(tracks), len(data))
			return nil
		})
	},
}

var bundleImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store the tracks of a bundle file",
	Long: `Store the tracks of a bundle file. Standalone fixes are gathered into a
new track named after the file. Records of unknown kinds are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}
		b, err := track.DecodeBundle(data)
		if err != nil {
			return fmt.Errorf("failed to decode bundle: %w", err)
		}

		return withRepository(func(repo *storage.Repository) error {
			tracks := b.Tracks()
			for _, t := range tracks {
				if _, err := repo.CreateTrack(t); err != nil {
					return err
				}
			}
			if locs := b.Locations(); len(locs) > 0 {
				name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				t := track.New(name)
				t.Append(locs...)
				if _, err := repo.CreateTrack(t); err != nil {
					return err
				}
				cmd.Printf("Gathered %d standalone fixes into track %s\n", len(locs), t.ID)
			}
			cmd.Printf("Imported %d tracks\n", len(tracks))
			if b.Skipped > 0 {
				cmd.Printf("Skipped %d records of unknown kinds\n", b.Skipped)
			}
			for _, f := range b.Failed {
				container.GetLogger().Warnf("bundle item %d skipped: %v", f.Index, f.Err)
			}
			if len(b.Failed) > 0 {
				cmd.Printf("Skipped %d damaged records\n", len(b.Failed))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(bundleExportCmd, bundleImportCmd)
}
