package sparse

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/stream"
)

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, ValueSize1, EncodingFor(0))
	assert.Equal(t, ValueSize1, EncodingFor(255))
	assert.Equal(t, ValueSize2, EncodingFor(256))
	assert.Equal(t, ValueSize2, EncodingFor(65535))
	assert.Equal(t, ValueSize4, EncodingFor(65536))
}

func TestBytes_RoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		entries int
		width   int
		enc     ValueSizeEncoding
	}{
		{"one entry", 1, 4, ValueSize1},
		{"short values", 10, 255, ValueSize1},
		{"medium values", 3, 300, ValueSize2},
		{"large value", 2, 70000, ValueSize4},
		{"full map", MaxEntries, 2, ValueSize1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := New[[]byte](0)
			for i := 0; i < tc.entries; i++ {
				require.NoError(t, m.Put(byte(i), bytes.Repeat([]byte{byte(i)}, tc.width)))
			}

			w := stream.NewWriter(0)
			require.NoError(t, WriteBytes(w, m))
			assert.Equal(t, uint8(tc.enc), w.Bytes()[1])

			r := stream.NewReader(w.Bytes())
			out, err := ReadBytes(r)
			require.NoError(t, err)
			assert.Equal(t, 0, r.Remaining())
			assert.Equal(t, m.Keys(), out.Keys())
			for i := 0; i < tc.entries; i++ {
				assert.Equal(t, m.ValueAt(i), out.ValueAt(i))
			}
		})
	}
}

func TestBytes_EmptyAndNil(t *testing.T) {
	for _, m := range []*Bytes{nil, New[[]byte](4)} {
		w := stream.NewWriter(0)
		require.NoError(t, WriteBytes(w, m))
		assert.Equal(t, []byte{0}, w.Bytes())

		out, err := ReadBytes(stream.NewReader(w.Bytes()))
		require.NoError(t, err)
		assert.Nil(t, out)
	}
}

func TestBytes_EncodingPerMap(t *testing.T) {
	m := New[[]byte](0)
	require.NoError(t, m.Put(1, []byte{1}))
	require.NoError(t, m.Put(2, make([]byte, 300)))

	w := stream.NewWriter(0)
	require.NoError(t, WriteBytes(w, m))

	// count, tag, then key 1 with a 2-byte length even though its value is one byte
	assert.Equal(t, []byte{2, byte(ValueSize2), 1, 0, 1, 1}, w.Bytes()[:6])
}

func TestBytes_UnknownEncoding(t *testing.T) {
	_, err := ReadBytes(stream.NewReader([]byte{1, 7, 1, 0}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrUnknownValueEncoding))
}

func TestBytes_Truncated(t *testing.T) {
	_, err := ReadBytes(stream.NewReader([]byte{2, 0, 1, 3, 'a'}))
	assert.True(t, errors.Is(err, stream.ErrTruncated))
}

func TestTyped_RoundTrip(t *testing.T) {
	shorts := New[int16](0)
	require.NoError(t, shorts.Put(1, -5))
	require.NoError(t, shorts.Put(9, 300))

	strs := New[string](0)
	require.NoError(t, strs.Put(4, "gps"))

	doubles := New[float64](0)
	require.NoError(t, doubles.Put(2, 50.123456789))

	w := stream.NewWriter(0)
	WriteShorts(w, shorts)
	WriteInts(w, nil)
	WriteStrings(w, strs)
	WriteDoubles(w, doubles)
	WriteLongs(w, nil)
	WriteFloats(w, nil)

	r := stream.NewReader(w.Bytes())

	gotShorts, err := ReadShorts(r)
	require.NoError(t, err)
	assert.Equal(t, shorts.Keys(), gotShorts.Keys())
	v, _ := gotShorts.Get(9)
	assert.Equal(t, int16(300), v)

	gotInts, err := ReadInts(r)
	require.NoError(t, err)
	assert.Nil(t, gotInts)

	gotStrs, err := ReadStrings(r)
	require.NoError(t, err)
	s, _ := gotStrs.Get(4)
	assert.Equal(t, "gps", s)

	gotDoubles, err := ReadDoubles(r)
	require.NoError(t, err)
	d, _ := gotDoubles.Get(2)
	assert.Equal(t, 50.123456789, d)

	gotLongs, err := ReadLongs(r)
	require.NoError(t, err)
	assert.Nil(t, gotLongs)

	gotFloats, err := ReadFloats(r)
	require.NoError(t, err)
	assert.Nil(t, gotFloats)

	assert.Equal(t, 0, r.Remaining())
}
