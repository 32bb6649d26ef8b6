package journal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/ssargent/locus/pkg/codec"
)

// Reader provides sequential access to journal entries
type Reader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
}

// NewReader opens a journal for reading
func NewReader(config ReaderConfig) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &Reader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
	}, nil
}

func corruptAt(off int64, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrCorruption, off, fmt.Sprintf(format, args...))
}

// NextFrame returns the next verified frame. It returns io.EOF at a clean end
// and ErrCorruption for a torn entry or a checksum mismatch. The offset only
// advances past entries that verify.
func (r *Reader) NextFrame() ([]byte, error) {
	var head [EntryOverhead + codec.HeaderSize]byte
	n, err := io.ReadFull(r.reader, head[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, corruptAt(r.offset, "torn entry header (%d bytes)", n)
		}
		return nil, err
	}

	want := binary.BigEndian.Uint32(head[0:4])
	version := int32(binary.BigEndian.Uint32(head[4:8]))
	length := int32(binary.BigEndian.Uint32(head[8:12]))
	if version < 0 || length < 0 || length > codec.MaxRecordSize {
		return nil, corruptAt(r.offset, "invalid frame header v%d, %d bytes", version, length)
	}

	var frame bytes.Buffer
	frame.Write(head[EntryOverhead:])
	if _, err := io.CopyN(&frame, r.reader, int64(length)); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, corruptAt(r.offset, "torn frame payload")
		}
		return nil, err
	}

	if got := crc32.ChecksumIEEE(frame.Bytes()); got != want {
		return nil, corruptAt(r.offset, "checksum %08x, expected %08x", got, want)
	}

	r.offset += int64(EntryOverhead + frame.Len())
	return frame.Bytes(), nil
}

// Next decodes the next entry into rec
func (r *Reader) Next(rec codec.Storable) error {
	off := r.offset
	frame, err := r.NextFrame()
	if err != nil {
		return err
	}
	if err := codec.Decode(frame, rec); err != nil {
		return fmt.Errorf("%w at offset %d: %w", ErrCorruption, off, err)
	}
	return nil
}

// Offset returns the offset just past the last verified entry
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the reader
func (r *Reader) Close() error {
	return r.file.Close()
}
