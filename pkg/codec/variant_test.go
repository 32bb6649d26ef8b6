package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/stream"
)

const (
	kindTest   Kind = 1
	kindFuture Kind = 9
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(kindTest, "test", func() Storable { return newTestRecord() }))

	err := reg.Register(kindTest, "again", func() Storable { return newTestRecord() })
	assert.Error(t, err)

	assert.Error(t, reg.Register(2, "nil", nil))
	assert.Panics(t, func() { reg.MustRegister(kindTest, "dup", func() Storable { return newTestRecord() }) })

	name, ok := reg.Name(kindTest)
	assert.True(t, ok)
	assert.Equal(t, "test", name)
	assert.Equal(t, []Kind{kindTest}, reg.Kinds())
}

func TestRegistry_ReadVariantSkipsUnknown(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(kindTest, "test", func() Storable { return newTestRecord() })

	w := stream.NewWriter(0)
	require.NoError(t, WriteVariant(w, kindTest, &testRecord{version: 1, Name: "first"}))
	require.NoError(t, WriteVariant(w, kindFuture, &futureRecord{Extra: 7}))
	require.NoError(t, WriteVariant(w, kindTest, &testRecord{version: 1, Name: "last"}))

	r := stream.NewReader(w.Bytes())

	kind, rec, err := reg.ReadVariant(r)
	require.NoError(t, err)
	assert.Equal(t, kindTest, kind)
	assert.Equal(t, "first", rec.(*testRecord).Name)

	kind, rec, err = reg.ReadVariant(r)
	require.NoError(t, err)
	assert.Equal(t, kindFuture, kind)
	assert.Nil(t, rec)

	_, rec, err = reg.ReadVariant(r)
	require.NoError(t, err)
	assert.Equal(t, "last", rec.(*testRecord).Name)
	assert.Equal(t, 0, r.Remaining())

	_, _, err = reg.ReadVariant(r)
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestRegistry_ReadVariantPayloadError(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(kindTest, "test", func() Storable { return newTestRecord() })

	w := stream.NewWriter(0)
	w.WriteUint8(uint8(kindTest))
	w.WriteBytes(header(1, 2))
	w.WriteInt16(0)
	require.NoError(t, WriteVariant(w, kindTest, &testRecord{version: 1, Name: "next"}))

	r := stream.NewReader(w.Bytes())
	kind, rec, err := reg.ReadVariant(r)
	var perr *PayloadError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrCorruptFrame)
	assert.Equal(t, kindTest, kind)
	assert.Nil(t, rec)

	_, rec, err = reg.ReadVariant(r)
	require.NoError(t, err)
	assert.Equal(t, "next", rec.(*testRecord).Name)

	// a bad header is not recoverable
	w = stream.NewWriter(0)
	w.WriteUint8(uint8(kindTest))
	w.WriteBytes(header(1, -1))
	_, _, err = reg.ReadVariant(stream.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrCorruptFrame)
	assert.False(t, errors.As(err, &perr))
}
