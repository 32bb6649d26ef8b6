package sparse

import (
	"fmt"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/stream"
)

// ValueSizeEncoding is the width of the per-entry length prefix used by a
// unified byte-valued map. One encoding is chosen per map, the smallest that
// fits the largest value.
type ValueSizeEncoding uint8

const (
	ValueSize1 ValueSizeEncoding = iota // 1-byte length
	ValueSize2                          // 2-byte length
	ValueSize4                          // 4-byte length
)

// EncodingFor returns the smallest encoding able to frame a value of maxLen bytes
func EncodingFor(maxLen int) ValueSizeEncoding {
	switch {
	case maxLen <= 0xff:
		return ValueSize1
	case maxLen <= 0xffff:
		return ValueSize2
	default:
		return ValueSize4
	}
}

// WriteTyped writes count:int8 followed by (key:int8, value) pairs. A nil map
// is written as count zero.
func WriteTyped[V any](w *stream.Writer, m *Map[V], put func(*stream.Writer, V)) {
	w.WriteUint8(uint8(m.Len()))
	m.ForEach(func(k byte, v V) bool {
		w.WriteUint8(k)
		put(w, v)
		return true
	})
}

// ReadTyped reads a map written by WriteTyped. Count zero yields nil.
func ReadTyped[V any](r *stream.Reader, get func(*stream.Reader) (V, error)) (*Map[V], error) {
	count, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	m := New[V](int(count))
	for i := 0; i < int(count); i++ {
		k, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		v, err := get(r)
		if err != nil {
			return nil, fmt.Errorf("value of key %d: %w", k, err)
		}
		if err := m.Put(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func putInt16(w *stream.Writer, v int16)     { w.WriteInt16(v) }
func putInt32(w *stream.Writer, v int32)     { w.WriteInt32(v) }
func putInt64(w *stream.Writer, v int64)     { w.WriteInt64(v) }
func putFloat32(w *stream.Writer, v float32) { w.WriteFloat32(v) }
func putFloat64(w *stream.Writer, v float64) { w.WriteFloat64(v) }
func putString(w *stream.Writer, v string)   { w.WriteString(v) }

func WriteShorts(w *stream.Writer, m *Shorts)   { WriteTyped(w, m, putInt16) }
func WriteInts(w *stream.Writer, m *Ints)       { WriteTyped(w, m, putInt32) }
func WriteLongs(w *stream.Writer, m *Longs)     { WriteTyped(w, m, putInt64) }
func WriteFloats(w *stream.Writer, m *Floats)   { WriteTyped(w, m, putFloat32) }
func WriteDoubles(w *stream.Writer, m *Doubles) { WriteTyped(w, m, putFloat64) }
func WriteStrings(w *stream.Writer, m *Strings) { WriteTyped(w, m, putString) }

func ReadShorts(r *stream.Reader) (*Shorts, error)   { return ReadTyped(r, (*stream.Reader).ReadInt16) }
func ReadInts(r *stream.Reader) (*Ints, error)       { return ReadTyped(r, (*stream.Reader).ReadInt32) }
func ReadLongs(r *stream.Reader) (*Longs, error)     { return ReadTyped(r, (*stream.Reader).ReadInt64) }
func ReadFloats(r *stream.Reader) (*Floats, error)   { return ReadTyped(r, (*stream.Reader).ReadFloat32) }
func ReadDoubles(r *stream.Reader) (*Doubles, error) { return ReadTyped(r, (*stream.Reader).ReadFloat64) }
func ReadStrings(r *stream.Reader) (*Strings, error) { return ReadTyped(r, (*stream.Reader).ReadString) }

// WriteBytes writes a unified byte-valued map:
//
//	[Count(1)] [Encoding(1)] ([Key(1)][Len(1|2|4)][Value])...
//
// The encoding byte is omitted when the map is empty.
func WriteBytes(w *stream.Writer, m *Bytes) error {
	n := m.Len()
	w.WriteUint8(uint8(n))
	if n == 0 {
		return nil
	}

	maxLen := 0
	m.ForEach(func(_ byte, v []byte) bool {
		if len(v) > maxLen {
			maxLen = len(v)
		}
		return true
	})
	if maxLen > codec.MaxRecordSize {
		return fmt.Errorf("sparse value of %d bytes exceeds %d", maxLen, codec.MaxRecordSize)
	}
	enc := EncodingFor(maxLen)
	w.WriteUint8(uint8(enc))

	m.ForEach(func(k byte, v []byte) bool {
		w.WriteUint8(k)
		switch enc {
		case ValueSize1:
			w.WriteUint8(uint8(len(v)))
		case ValueSize2:
			w.WriteUint16(uint16(len(v)))
		default:
			w.WriteInt32(int32(len(v)))
		}
		w.WriteBytes(v)
		return true
	})
	return nil
}

// ReadBytes reads a map written by WriteBytes. Count zero yields nil.
func ReadBytes(r *stream.Reader) (*Bytes, error) {
	count, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	tag, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	enc := ValueSizeEncoding(tag)
	if enc > ValueSize4 {
		return nil, fmt.Errorf("%w: tag %d", codec.ErrUnknownValueEncoding, tag)
	}

	m := New[[]byte](int(count))
	for i := 0; i < int(count); i++ {
		k, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		var n int
		switch enc {
		case ValueSize1:
			v, err := r.ReadUint8()
			if err != nil {
				return nil, err
			}
			n = int(v)
		case ValueSize2:
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			n = int(v)
		default:
			v, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			n = int(v)
		}
		v, err := r.ReadBytes(n)
		if err != nil {
			return nil, fmt.Errorf("value of key %d: %w", k, err)
		}
		if err := m.Put(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}
