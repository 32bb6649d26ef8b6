/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/journal"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/stream"
)

type frameInfo struct {
	offset  int64
	version int32
	length  int32
}

// readFrames walks the top-level frames of a file. Frames read before a
// failure are returned along with the error.
func readFrames(path string, asJournal bool) ([]frameInfo, error) {
	if asJournal {
		return readJournalFrames(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var frames []frameInfo
	r := stream.NewReader(data)
	for r.Remaining() > 0 {
		off := r.Offset()
		version, length, err := codec.PeekHeader(data[off:])
		if err != nil {
			return frames, fmt.Errorf("frame at offset %d: %w", off, err)
		}
		if err := codec.Skip(r); err != nil {
			return frames, fmt.Errorf("frame at offset %d: %w", off, err)
		}
		frames = append(frames, frameInfo{offset: int64(off), version: version, length: length})
	}
	return frames, nil
}

func readJournalFrames(path string) ([]frameInfo, error) {
	jr, err := journal.NewReader(journal.ReaderConfig{FilePath: path})
	if err != nil {
		return nil, err
	}
	defer jr.Close()

	var frames []frameInfo
	for {
		off := jr.Offset()
		frame, err := jr.NextFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		version, length, err := codec.PeekHeader(frame)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frameInfo{offset: off, version: version, length: length})
	}
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the frame headers of a file",
	Long: `List the frame headers of a file of concatenated frames, or of a journal
with --journal. With --location each frame also lists its decode steps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJournal, _ := cmd.Flags().GetBool("journal")
		asLocation, _ := cmd.Flags().GetBool("location")

		frames, err := readFrames(args[0], asJournal)
		for _, f := range frames {
			cmd.Printf("offset=%d version=%d length=%d\n", f.offset, f.version, f.length)
			if asLocation {
				cmd.Printf("  steps: %s\n", strings.Join(location.DecodeSteps(f.version), ", "))
			}
		}
		cmd.Printf("%d frames\n", len(frames))
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("journal", false, "Read the file as a checksummed journal")
	inspectCmd.Flags().Bool("location", false, "Show location decode steps per frame")
}
