/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/journal"
	"github.com/ssargent/locus/pkg/location"
)

// journalCmd represents the journal command group
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Append, replay and recover fix journals",
}

var journalAppendCmd = &cobra.Command{
	Use:   "append <file> <lat> <lon>",
	Short: "Append a fix to a journal",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pointFromFlags(cmd, args[1], args[2])
		if err != nil {
			return err
		}
		w, err := container.OpenJournal(args[0])
		if err != nil {
			return err
		}
		off, err := w.Append(p)
		if err != nil {
			w.Close()
			return fmt.Errorf("failed to append fix: %w", err)
		}
		if err := w.Close(); err != nil {
			return err
		}
		cmd.Printf("Appended fix at offset %d\n", off)
		return nil
	},
}

var journalReplayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Print every fix in a journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := journal.NewReader(journal.ReaderConfig{FilePath: args[0]})
		if err != nil {
			return err
		}
		defer r.Close()

		count := 0
		for {
			l := &location.Location{}
			err := r.Next(l)
			if err == io.EOF {
				break
			}
			if errors.Is(err, journal.ErrCorruption) {
				cmd.Printf("Stopped after %d fixes: %v\n", count, err)
				cmd.Printf("Run 'locus journal recover %s' to truncate the damaged tail\n", args[0])
				return err
			}
			if err != nil {
				return err
			}
			cmd.Printf("%s\n", l)
			count++
		}
		cmd.Printf("%d fixes\n", count)
		return nil
	},
}

var journalRecoverCmd = &cobra.Command{
	Use:   "recover <file>",
	Short: "Truncate a journal at its first damaged entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := journal.Recover(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Entries validated: %d\n", res.EntriesValidated)
		if res.Truncated() {
			cmd.Printf("Recovered from corruption: %d bytes truncated (%d -> %d)\n", res.BytesTruncated, res.SizeBefore, res.SizeAfter)
			container.GetLogger().Warnf("journal %s truncated by %d bytes", args[0], res.BytesTruncated)
		} else {
			cmd.Printf("Journal is clean\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAppendCmd, journalReplayCmd, journalRecoverCmd)
	addPointFlags(journalAppendCmd)
}
