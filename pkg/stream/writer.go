// Package stream implements the ordered big-endian primitive reader and writer
// that every record in locus is serialized through.
package stream

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates big-endian primitives in a growable buffer.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with the given initial capacity
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// grow extends the buffer by n bytes and returns the offset of the new space
func (w *Writer) grow(n int) int {
	off := len(w.buf)
	need := off + n
	if need > cap(w.buf) {
		c := cap(w.buf)
		if c < 64 {
			c = 64
		}
		for need > c {
			c <<= 1
		}
		old := w.buf
		w.buf = make([]byte, off, c)
		copy(w.buf, old)
	}
	w.buf = w.buf[:need]
	return off
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reset discards the written bytes but keeps the buffer
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) WriteInt8(v int8) {
	off := w.grow(1)
	w.buf[off] = byte(v)
}

func (w *Writer) WriteUint8(v uint8) {
	off := w.grow(1)
	w.buf[off] = v
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteInt16(v int16) {
	off := w.grow(2)
	binary.BigEndian.PutUint16(w.buf[off:], uint16(v))
}

func (w *Writer) WriteUint16(v uint16) {
	off := w.grow(2)
	binary.BigEndian.PutUint16(w.buf[off:], v)
}

func (w *Writer) WriteInt32(v int32) {
	off := w.grow(4)
	binary.BigEndian.PutUint32(w.buf[off:], uint32(v))
}

func (w *Writer) WriteUint32(v uint32) {
	off := w.grow(4)
	binary.BigEndian.PutUint32(w.buf[off:], v)
}

func (w *Writer) WriteInt64(v int64) {
	off := w.grow(8)
	binary.BigEndian.PutUint64(w.buf[off:], uint64(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	off := w.grow(8)
	binary.BigEndian.PutUint64(w.buf[off:], math.Float64bits(v))
}

// WriteBytes appends a raw block without any length prefix
func (w *Writer) WriteBytes(b []byte) {
	off := w.grow(len(b))
	copy(w.buf[off:], b)
}

// WriteBlock appends an int32 length followed by the raw block
func (w *Writer) WriteBlock(b []byte) {
	w.WriteInt32(int32(len(b)))
	w.WriteBytes(b)
}

// WriteString appends an int32 byte length followed by the UTF-8 bytes.
// An empty string is written as a zero length.
func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	off := w.grow(len(s))
	copy(w.buf[off:], s)
}

// PutInt32At overwrites four bytes at offset, used to backpatch lengths
func (w *Writer) PutInt32At(offset int, v int32) {
	if offset < 0 || offset+4 > len(w.buf) {
		panic(fmt.Errorf("stream: backpatch offset %d out of range (len %d)", offset, len(w.buf)))
	}
	binary.BigEndian.PutUint32(w.buf[offset:], uint32(v))
}
