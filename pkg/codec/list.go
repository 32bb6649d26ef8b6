package codec

import (
	"io"

	"github.com/ssargent/locus/pkg/metrics"
	"github.com/ssargent/locus/pkg/stream"
)

// WriteList writes count followed by one frame per record
func WriteList[T Storable](w *stream.Writer, recs []T) error {
	w.WriteInt32(int32(len(recs)))
	for _, rec := range recs {
		if err := Write(w, rec); err != nil {
			return err
		}
	}
	return nil
}

// EncodeList serializes recs into a new byte slice
func EncodeList[T Storable](recs []T) ([]byte, error) {
	w := stream.NewWriter(64)
	if err := WriteList(w, recs); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// ReadList reads a list written by WriteList, constructing each element with
// newT. Elements whose payload fails to decode are left out and reported in a
// *ListError alongside the decoded elements. A corrupt frame header stops the
// list, since the following frame cannot be located.
func ReadList[T Storable](r *stream.Reader, newT func() T) ([]T, error) {
	off := r.Offset()
	count, err := r.ReadInt32()
	if err != nil {
		return nil, frameErrf(newT(), off, 0, 0, err, "short list count")
	}
	if count < 0 || int(count) > r.Remaining()/HeaderSize {
		return nil, frameErrf(newT(), off, 0, 0, nil, "invalid list count %d", count)
	}

	items := make([]T, 0, count)
	var failed []ElementError
	for i := 0; i < int(count); i++ {
		rec := newT()
		headerOK, err := readFrame(r, rec)
		if err != nil {
			if !headerOK {
				return items, err
			}
			failed = append(failed, ElementError{Index: i, Err: err})
			continue
		}
		items = append(items, rec)
	}

	if len(failed) > 0 {
		return items, &ListError{Count: int(count), Failed: failed}
	}
	return items, nil
}

// DecodeList decodes data written by EncodeList
func DecodeList[T Storable](data []byte, newT func() T) ([]T, error) {
	r := stream.NewReader(data)
	items, err := ReadList(r, newT)
	if err != nil {
		return items, err
	}
	if r.Remaining() != 0 {
		return items, frameErrf(newT(), r.Offset(), 0, 0, ErrTrailingData, "%d bytes left", r.Remaining())
	}
	return items, nil
}

// ReadListFrom reads a list from a stream
func ReadListFrom[T Storable](src io.Reader, newT func() T) ([]T, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		return nil, frameErrf(newT(), 0, 0, 0, err, "short list count")
	}
	count := int32(uint32(hdr[0])<<24 | uint32(hdr[1])<<16 | uint32(hdr[2])<<8 | uint32(hdr[3]))
	if count < 0 {
		return nil, frameErrf(newT(), 0, 0, 0, nil, "invalid list count %d", count)
	}

	var items []T
	var failed []ElementError
	for i := 0; i < int(count); i++ {
		version, payload, err := readRaw(src, newT())
		if err != nil {
			if err == io.EOF {
				err = frameErrf(newT(), 0, 0, 0, io.ErrUnexpectedEOF, "list ended after %d of %d", i, count)
			}
			return items, err
		}
		rec := newT()
		if err := rec.ReadObject(version, stream.NewReader(payload)); err != nil {
			failed = append(failed, ElementError{Index: i, Err: frameErrf(rec, 0, version, int32(len(payload)), err, "payload")})
			continue
		}
		metrics.FramesTotal.WithLabelValues(metrics.OpDecode).Inc()
		items = append(items, rec)
	}

	if len(failed) > 0 {
		return items, &ListError{Count: int(count), Failed: failed}
	}
	return items, nil
}
