// Package journal is an append-only file of checksummed record frames.
//
// Each entry is a big-endian IEEE CRC-32 of the frame followed by the frame
// itself. A torn or corrupt tail is cut off by Recover.
package journal

import (
	"time"

	"github.com/ssargent/locus/pkg/logger"
)

// EntryOverhead is the checksum prefix written before every frame
const EntryOverhead = 4

// WriterConfig holds configuration for the journal writer
type WriterConfig struct {
	FilePath      string        // Path to the journal file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	BufferSize    int           // Write buffer size
	Logger        logger.Logger
}

// ReaderConfig holds configuration for the journal reader
type ReaderConfig struct {
	FilePath    string // Path to the journal file
	StartOffset int64  // Offset to start reading from
}

// RecoveryResult describes what Recover found and cut off
type RecoveryResult struct {
	EntriesValidated int64
	BytesTruncated   int64
	SizeBefore       int64
	SizeAfter        int64
	Duration         time.Duration
}

// Truncated reports whether recovery removed anything
func (r *RecoveryResult) Truncated() bool {
	return r.BytesTruncated > 0
}

// Errors
var (
	ErrCorruption = &JournalError{"journal corruption detected"}
	ErrClosed     = &JournalError{"journal is closed"}
	ErrBroken     = &JournalError{"journal writer failed, recover the file before appending"}
)

// JournalError represents a journal error
type JournalError struct {
	Message string
}

func (e *JournalError) Error() string {
	return e.Message
}
