package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ssargent/locus/pkg/metrics"
	"github.com/ssargent/locus/pkg/stream"
)

const (
	// MaxRecordSize is the hard ceiling for a frame payload
	MaxRecordSize = 50 * 1024 * 1024

	// HeaderSize is the size of the version and length fields
	HeaderSize = 8
)

// Storable is implemented by every record that serializes through a frame
type Storable interface {
	// Version returns the layout version the record writes
	Version() int32
	// WriteObject writes the payload fields
	WriteObject(w *stream.Writer) error
	// ReadObject populates the record from a payload written with version
	ReadObject(version int32, r *stream.Reader) error
}

// Write frames rec into w
func Write(w *stream.Writer, rec Storable) error {
	w.WriteInt32(rec.Version())
	lengthOff := w.Len()
	w.WriteInt32(0)

	start := w.Len()
	if err := rec.WriteObject(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", typeName(rec), err)
	}

	length := w.Len() - start
	if length > MaxRecordSize {
		return fmt.Errorf("failed to write %s: payload of %d bytes exceeds %d", typeName(rec), length, MaxRecordSize)
	}
	w.PutInt32At(lengthOff, int32(length))

	metrics.FramesTotal.WithLabelValues(metrics.OpEncode).Inc()
	return nil
}

// Encode serializes rec into a new byte slice
func Encode(rec Storable) ([]byte, error) {
	w := stream.NewWriter(64)
	if err := Write(w, rec); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode populates rec from data, which must hold exactly one frame
func Decode(data []byte, rec Storable) error {
	r := stream.NewReader(data)
	if err := Read(r, rec); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return frameErrf(rec, 0, 0, 0, ErrTrailingData, "%d bytes left", r.Remaining())
	}
	return nil
}

// readHeader reads and validates a frame header against the remaining input
func readHeader(r *stream.Reader, rec any) (version, length int32, err error) {
	off := r.Offset()
	version, err = r.ReadInt32()
	if err != nil {
		return 0, 0, frameErrf(rec, off, 0, 0, err, "short header")
	}
	length, err = r.ReadInt32()
	if err != nil {
		return version, 0, frameErrf(rec, off, version, 0, err, "short header")
	}
	if err := checkHeader(rec, off, version, length); err != nil {
		return version, length, err
	}
	if int(length) > r.Remaining() {
		return version, length, frameErrf(rec, off, version, length, stream.ErrTruncated, "payload has %d bytes", r.Remaining())
	}
	return version, length, nil
}

func checkHeader(rec any, off int, version, length int32) error {
	if version < 0 {
		return frameErrf(rec, off, version, length, nil, "negative version")
	}
	if length < 0 || length > MaxRecordSize {
		return frameErrf(rec, off, version, length, nil, "length out of range [0, %d]", MaxRecordSize)
	}
	return nil
}

// readFrame decodes one frame. headerOK reports whether the frame boundary is
// known, so a caller can continue with the next frame after a payload error.
func readFrame(r *stream.Reader, rec Storable) (headerOK bool, err error) {
	off := r.Offset()
	version, length, err := readHeader(r, rec)
	if err != nil {
		metrics.CorruptFramesTotal.Inc()
		return false, err
	}

	// readHeader checked the bounds
	payload, _ := r.Sub(int(length))
	if err := rec.ReadObject(version, payload); err != nil {
		return true, frameErrf(rec, off, version, length, err, "payload")
	}

	metrics.FramesTotal.WithLabelValues(metrics.OpDecode).Inc()
	return true, nil
}

// Read decodes the next frame from r into rec. Payload bytes not consumed
// by rec are skipped.
func Read(r *stream.Reader, rec Storable) error {
	_, err := readFrame(r, rec)
	return err
}

// PeekHeader returns the next frame's version and length without consuming it
func PeekHeader(data []byte) (version, length int32, err error) {
	r := stream.NewReader(data)
	version, length, err = readHeader(r, nil)
	return version, length, err
}

// Skip discards the next frame without interpreting its payload
func Skip(r *stream.Reader) error {
	_, length, err := readHeader(r, nil)
	if err != nil {
		metrics.CorruptFramesTotal.Inc()
		return err
	}
	if err := r.Skip(int(length)); err != nil {
		return err
	}
	metrics.FramesTotal.WithLabelValues(metrics.OpSkip).Inc()
	return nil
}

// readRaw reads one whole frame from a stream. The payload is copied in
// chunks so a lying length on a short stream does not allocate it up front.
func readRaw(src io.Reader, rec any) (version int32, payload []byte, err error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(src, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, frameErrf(rec, 0, 0, 0, err, "short header")
	}
	version = int32(binary.BigEndian.Uint32(header[0:4]))
	length := int32(binary.BigEndian.Uint32(header[4:8]))
	if err := checkHeader(rec, 0, version, length); err != nil {
		return version, nil, err
	}

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, src, int64(length))
	if err != nil {
		return version, nil, frameErrf(rec, 0, version, length, err, "payload has %d bytes", n)
	}
	return version, buf.Bytes(), nil
}

// ReadFrom decodes the next frame from a stream into rec. It returns io.EOF
// when the stream ends cleanly before a header.
func ReadFrom(src io.Reader, rec Storable) error {
	version, payload, err := readRaw(src, rec)
	if err != nil {
		if err != io.EOF {
			metrics.CorruptFramesTotal.Inc()
		}
		return err
	}
	if err := rec.ReadObject(version, stream.NewReader(payload)); err != nil {
		return frameErrf(rec, 0, version, int32(len(payload)), err, "payload")
	}
	metrics.FramesTotal.WithLabelValues(metrics.OpDecode).Inc()
	return nil
}

// SkipFrom discards the next frame of a stream
func SkipFrom(src io.Reader) error {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(src, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return frameErrf(nil, 0, 0, 0, err, "short header")
	}
	version := int32(binary.BigEndian.Uint32(header[0:4]))
	length := int32(binary.BigEndian.Uint32(header[4:8]))
	if err := checkHeader(nil, 0, version, length); err != nil {
		metrics.CorruptFramesTotal.Inc()
		return err
	}
	if _, err := io.CopyN(io.Discard, src, int64(length)); err != nil {
		metrics.CorruptFramesTotal.Inc()
		return frameErrf(nil, 0, version, length, err, "short payload")
	}
	metrics.FramesTotal.WithLabelValues(metrics.OpSkip).Inc()
	return nil
}

// Copy populates dst with the decoded encoding of src
func Copy(src, dst Storable) error {
	data, err := Encode(src)
	if err != nil {
		return err
	}
	return Decode(data, dst)
}

// Equal reports whether two records have identical encodings
func Equal(a, b Storable) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
