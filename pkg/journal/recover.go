package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Recover validates every entry of the journal at path and truncates the
// file at the first entry that does not verify. A missing file is not an error.
func Recover(path string) (*RecoveryResult, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{Duration: time.Since(start)}, nil
		}
		return nil, err
	}
	sizeBefore := info.Size()

	reader, err := NewReader(ReaderConfig{FilePath: path})
	if err != nil {
		return nil, err
	}

	var validated int64
	var corruption bool
	for {
		_, err := reader.NextFrame()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrCorruption) {
			corruption = true
			break
		}
		if err != nil {
			reader.Close()
			return nil, err
		}
		validated++
	}
	lastValid := reader.Offset()
	reader.Close()

	sizeAfter := sizeBefore
	if corruption {
		if err := os.Truncate(path, lastValid); err != nil {
			return nil, fmt.Errorf("failed to truncate journal: %w", err)
		}
		sizeAfter = lastValid
	}

	return &RecoveryResult{
		EntriesValidated: validated,
		BytesTruncated:   sizeBefore - sizeAfter,
		SizeBefore:       sizeBefore,
		SizeAfter:        sizeAfter,
		Duration:         time.Since(start),
	}, nil
}
