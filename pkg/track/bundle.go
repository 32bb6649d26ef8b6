package track

import (
	"errors"
	"fmt"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/stream"
)

// Variant kinds carried in a bundle
const (
	KindLocation codec.Kind = 1
	KindTrack    codec.Kind = 2
	KindStyle    codec.Kind = 3
)

// Registry knows every kind a bundle can carry
var Registry = newRegistry()

func newRegistry() *codec.Registry {
	reg := codec.NewRegistry()
	reg.MustRegister(KindLocation, "location", func() codec.Storable { return &location.Location{} })
	reg.MustRegister(KindTrack, "track", func() codec.Storable { return &Track{} })
	reg.MustRegister(KindStyle, "style", func() codec.Storable { return &Style{} })
	return reg
}

// KindOf returns the variant kind for a record
func KindOf(rec codec.Storable) (codec.Kind, error) {
	switch rec.(type) {
	case *location.Location:
		return KindLocation, nil
	case *Track:
		return KindTrack, nil
	case *Style:
		return KindStyle, nil
	default:
		return 0, fmt.Errorf("no bundle kind for %T", rec)
	}
}

// BundleVersion is the layout every Bundle is written with
const BundleVersion int32 = 0

// Bundle is a heterogeneous list of records
type Bundle struct {
	Items []codec.Storable

	// Skipped counts items of kinds this build does not know
	Skipped int

	// Failed lists items of known kinds whose payload did not decode
	Failed []codec.ElementError
}

var _ codec.Storable = (*Bundle)(nil)

// Add appends records to the bundle
func (b *Bundle) Add(recs ...codec.Storable) error {
	for _, rec := range recs {
		if _, err := KindOf(rec); err != nil {
			return err
		}
		b.Items = append(b.Items, rec)
	}
	return nil
}

// Tracks returns the tracks in the bundle
func (b *Bundle) Tracks() []*Track {
	var out []*Track
	for _, it := range b.Items {
		if t, ok := it.(*Track); ok {
			out = append(out, t)
		}
	}
	return out
}

// Locations returns the standalone locations in the bundle
func (b *Bundle) Locations() []*location.Location {
	var out []*location.Location
	for _, it := range b.Items {
		if l, ok := it.(*location.Location); ok {
			out = append(out, l)
		}
	}
	return out
}

func (b *Bundle) Version() int32 { return BundleVersion }

func (b *Bundle) WriteObject(w *stream.Writer) error {
	w.WriteInt32(int32(len(b.Items)))
	for _, it := range b.Items {
		kind, err := KindOf(it)
		if err != nil {
			return err
		}
		if err := codec.WriteVariant(w, kind, it); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bundle) ReadObject(_ int32, r *stream.Reader) error {
	*b = Bundle{}
	count, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if count < 0 || int(count) > r.Remaining()/(codec.HeaderSize+1) {
		return fmt.Errorf("invalid bundle count %d", count)
	}

	for i := 0; i < int(count); i++ {
		_, rec, err := Registry.ReadVariant(r)
		var perr *codec.PayloadError
		if errors.As(err, &perr) {
			b.Failed = append(b.Failed, codec.ElementError{Index: i, Err: perr.Err})
			continue
		}
		if err != nil {
			return fmt.Errorf("bundle item %d: %w", i, err)
		}
		if rec == nil {
			b.Skipped++
			continue
		}
		b.Items = append(b.Items, rec)
	}
	return nil
}

// EncodeBundle serializes a bundle as one frame
func EncodeBundle(b *Bundle) ([]byte, error) {
	return codec.Encode(b)
}

// DecodeBundle decodes a frame written by EncodeBundle
func DecodeBundle(data []byte) (*Bundle, error) {
	b := &Bundle{}
	if err := codec.Decode(data, b); err != nil {
		return nil, err
	}
	return b, nil
}
