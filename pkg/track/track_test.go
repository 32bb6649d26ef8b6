package track

import (
	"errors"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/stream"
)

func sampleTrack() *Track {
	tr := New("morning ride")
	tr.Description = "loop"
	tr.Style = DefaultStyle()
	for i := 0; i < 3; i++ {
		p := location.New(0, float64(i))
		p.Time = int64(i) * 1000
		p.SetProvider("gps")
		tr.Append(p)
	}
	return tr
}

func TestTrack_RoundTrip(t *testing.T) {
	tr := sampleTrack()

	data, err := codec.Encode(tr)
	require.NoError(t, err)

	out := &Track{}
	require.NoError(t, codec.Decode(data, out))
	assert.Equal(t, tr.ID, out.ID)
	assert.Equal(t, "morning ride", out.Name)
	assert.Equal(t, "loop", out.Description)
	assert.Equal(t, tr.Style, out.Style)
	require.Len(t, out.Points, 3)
	for i := range tr.Points {
		assert.True(t, tr.Points[i].Equal(out.Points[i]))
	}
	assert.Zero(t, out.Dropped)
}

func TestTrack_NilID(t *testing.T) {
	tr := &Track{Name: "anonymous"}
	out := &Track{}
	require.NoError(t, codec.Copy(tr, out))
	assert.Equal(t, ksuid.Nil, out.ID)
}

// v0 tracks carry neither style nor description
type trackV0 struct{ *Track }

func (t trackV0) Version() int32 { return 0 }

func (t trackV0) WriteObject(w *stream.Writer) error {
	w.WriteBlock(t.ID.Bytes())
	w.WriteString(t.Name)
	return codec.WriteList(w, t.Points)
}

func TestTrack_DecodeV0(t *testing.T) {
	tr := sampleTrack()
	data, err := codec.Encode(trackV0{tr})
	require.NoError(t, err)

	out := &Track{}
	require.NoError(t, codec.Decode(data, out))
	assert.Equal(t, tr.ID, out.ID)
	assert.Nil(t, out.Style)
	assert.Empty(t, out.Description)
	assert.Len(t, out.Points, 3)
}

type styleV0 struct{ *Style }

func (s styleV0) Version() int32 { return 0 }

func (s styleV0) WriteObject(w *stream.Writer) error {
	w.WriteString(s.Name)
	w.WriteInt32(s.LineColor)
	w.WriteFloat32(s.LineWidth)
	return nil
}

func TestStyle_DecodeV0(t *testing.T) {
	s := &Style{Name: "red", LineColor: -65536, LineWidth: 3, FillColor: 42}
	data, err := codec.Encode(styleV0{s})
	require.NoError(t, err)

	out := &Style{}
	require.NoError(t, codec.Decode(data, out))
	assert.Equal(t, "red", out.Name)
	assert.Equal(t, float32(3), out.LineWidth)
	assert.Zero(t, out.FillColor)
}

// brokenPoint has a valid header but an unreadable payload
type brokenPoint struct{}

func (brokenPoint) Version() int32 { return location.CurrentVersion }
func (brokenPoint) WriteObject(w *stream.Writer) error {
	w.WriteInt64(1)
	return nil
}
func (brokenPoint) ReadObject(int32, *stream.Reader) error { return nil }

func TestTrack_SkipsBrokenPoint(t *testing.T) {
	tr := sampleTrack()

	w := stream.NewWriter(0)
	w.WriteInt32(TrackVersion)
	lengthOff := w.Len()
	w.WriteInt32(0)
	start := w.Len()
	w.WriteBlock(tr.ID.Bytes())
	w.WriteString(tr.Name)
	require.NoError(t, codec.WriteList(w, []codec.Storable{tr.Points[0], brokenPoint{}, tr.Points[2]}))
	w.WriteBool(false)
	w.WriteString("")
	w.PutInt32At(lengthOff, int32(w.Len()-start))

	out := &Track{}
	require.NoError(t, codec.Decode(w.Bytes(), out))
	assert.Equal(t, 1, out.Dropped)
	require.Len(t, out.Points, 2)
	assert.True(t, tr.Points[2].Equal(out.Points[1]))
}

func TestTrack_LengthAndBounds(t *testing.T) {
	tr := sampleTrack()

	s := geodesic.NewSolver(geodesic.ModePrecise)
	assert.InDelta(t, 2*111319.49, tr.Length(s), 2)

	b, ok := tr.Bounds()
	require.True(t, ok)
	assert.Equal(t, Bounds{MinLat: 0, MinLon: 0, MaxLat: 0, MaxLon: 2}, b)
	assert.True(t, b.Contains(0, 1.5))
	assert.False(t, b.Contains(0.1, 1.5))

	_, ok = (&Track{}).Bounds()
	assert.False(t, ok)
	assert.Zero(t, (&Track{}).Length(s))
}

func TestTrack_CorruptID(t *testing.T) {
	w := stream.NewWriter(0)
	w.WriteInt32(TrackVersion)
	w.WriteInt32(7)
	w.WriteBlock([]byte{1, 2, 3})

	err := codec.Decode(w.Bytes(), &Track{})
	assert.True(t, errors.Is(err, codec.ErrCorruptFrame))
}
