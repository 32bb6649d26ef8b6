package journal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/logger"
	"github.com/ssargent/locus/pkg/metrics"
)

const defaultBufferSize = 64 * 1024

// Writer appends frames to a journal file. It is safe for concurrent use.
type Writer struct {
	file       *os.File
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     WriterConfig
	log        logger.Logger
	mutex      sync.Mutex
	offset     int64 // Current write offset
	closed     bool
	failed     error
}

// Open opens or creates the journal for appending
func Open(config WriterConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}

	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}
	w := &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		config: config,
		log:    config.Logger,
		offset: stat.Size(),
	}
	if w.log == nil {
		w.log = logger.NopLogger
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			if w.closed {
				return
			}
			if err := w.sync(); err != nil {
				w.log.Errorf("journal %s: background sync failed: %v", w.config.FilePath, err)
			}
		})
	}

	w.log.Debugf("journal %s opened at offset %d", config.FilePath, w.offset)
	return w, nil
}

// Append writes rec as one entry and returns the offset the entry starts at
func (w *Writer) Append(rec codec.Storable) (int64, error) {
	frame, err := codec.Encode(rec)
	if err != nil {
		return 0, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	if w.failed != nil {
		return 0, w.failed
	}

	var sum [EntryOverhead]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(frame))
	if _, err := w.writer.Write(sum[:]); err != nil {
		return 0, w.fail(err)
	}
	if _, err := w.writer.Write(frame); err != nil {
		return 0, w.fail(err)
	}

	entryOffset := w.offset
	w.offset += int64(EntryOverhead + len(frame))

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, w.fail(err)
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	metrics.JournalAppendsTotal.Inc()
	return entryOffset, nil
}

// fail stops further appends after a write error. Buffered bytes are dropped
// and the offset is taken from the file, which may now end in a torn entry.
func (w *Writer) fail(err error) error {
	w.writer.Reset(w.file)
	if stat, serr := w.file.Stat(); serr == nil {
		w.offset = stat.Size()
	}
	w.failed = fmt.Errorf("%w: %w", ErrBroken, err)
	w.log.Errorf("journal %s: %v", w.config.FilePath, err)
	return w.failed
}

// Sync flushes buffered entries and fsyncs the file
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the journal
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the journal size including buffered entries
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.FilePath
}
