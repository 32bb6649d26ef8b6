// Package track groups locations into named, styled tracks and bundles
// heterogeneous records into a single tagged-variant frame.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/stream"
)

// TrackVersion is the layout every Track is written with
const TrackVersion int32 = 1

// Track is an ordered sequence of locations
type Track struct {
	ID          ksuid.KSUID
	Name        string
	Points      []*location.Location
	Style       *Style // since v1
	Description string // since v1

	// Dropped counts points whose frames failed to decode
	Dropped int
}

var _ codec.Storable = (*Track)(nil)

// New creates an empty track with a fresh ID
func New(name string) *Track {
	return &Track{ID: ksuid.New(), Name: name}
}

// Append adds points to the end of the track
func (t *Track) Append(points ...*location.Location) {
	t.Points = append(t.Points, points...)
}

// Length is the sum of distances between consecutive points, in meters
func (t *Track) Length(s *geodesic.Solver) float64 {
	var total float64
	for i := 1; i < len(t.Points); i++ {
		total += t.Points[i-1].DistanceTo(t.Points[i], s)
	}
	return total
}

// Bounds is a latitude/longitude bounding box
type Bounds struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Contains reports whether a coordinate lies inside the box
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Bounds returns the bounding box of the points. ok is false for an empty track.
func (t *Track) Bounds() (b Bounds, ok bool) {
	if len(t.Points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	for _, p := range t.Points {
		b.MinLat = math.Min(b.MinLat, p.Latitude())
		b.MaxLat = math.Max(b.MaxLat, p.Latitude())
		b.MinLon = math.Min(b.MinLon, p.Longitude())
		b.MaxLon = math.Max(b.MaxLon, p.Longitude())
	}
	return b, true
}

func (t *Track) String() string {
	return fmt.Sprintf("Track[id=%s, name=%q, points=%d]", t.ID, t.Name, len(t.Points))
}

func (t *Track) Version() int32 { return TrackVersion }

func (t *Track) WriteObject(w *stream.Writer) error {
	w.WriteBlock(t.ID.Bytes())
	w.WriteString(t.Name)
	if err := codec.WriteList(w, t.Points); err != nil {
		return err
	}

	w.WriteBool(t.Style != nil)
	if t.Style != nil {
		if err := codec.Write(w, t.Style); err != nil {
			return err
		}
	}
	w.WriteString(t.Description)
	return nil
}

func newLocation() *location.Location { return &location.Location{} }

var trackSteps = codec.Steps[*Track]{
	{Name: "points", Since: 0, Read: func(t *Track, r *stream.Reader) error {
		raw, err := r.ReadBlock()
		if err != nil {
			return err
		}
		if len(raw) > 0 {
			if t.ID, err = ksuid.FromBytes(raw); err != nil {
				return fmt.Errorf("invalid track id: %w", err)
			}
		}
		if t.Name, err = r.ReadString(); err != nil {
			return err
		}

		points, err := codec.ReadList(r, newLocation)
		var listErr *codec.ListError
		if errors.As(err, &listErr) {
			t.Dropped = len(listErr.Failed)
			err = nil
		}
		t.Points = points
		return err
	}},
	{Name: "style", Since: 1, Read: func(t *Track, r *stream.Reader) error {
		hasStyle, err := r.ReadBool()
		if err != nil {
			return err
		}
		if hasStyle {
			t.Style = &Style{}
			if err := codec.Read(r, t.Style); err != nil {
				return err
			}
		}
		t.Description, err = r.ReadString()
		return err
	}},
}

func (t *Track) ReadObject(version int32, r *stream.Reader) error {
	*t = Track{}
	return trackSteps.Apply(version, t, r)
}
