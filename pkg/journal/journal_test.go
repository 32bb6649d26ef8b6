package journal

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/metrics"
)

func fix(i int) *location.Location {
	l := location.New(50+float64(i)/1000, 14)
	l.ID = int64(i)
	l.SetProvider("gps")
	return l
}

func writeJournal(t *testing.T, path string, n int) []int64 {
	t.Helper()
	w, err := Open(WriterConfig{FilePath: path})
	require.NoError(t, err)

	var offsets []int64
	for i := 0; i < n; i++ {
		off, err := w.Append(fix(i))
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	require.NoError(t, w.Close())
	return offsets
}

func readAll(t *testing.T, path string) ([]*location.Location, error) {
	t.Helper()
	r, err := NewReader(ReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	var out []*location.Location
	for {
		l := &location.Location{}
		err := r.Next(l)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, l)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "fixes.journal")

	w, err := Open(WriterConfig{FilePath: path})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, int64(0), w.Size())
	assert.Equal(t, path, w.Path())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWriter_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.journal")
	before := testutil.ToFloat64(metrics.JournalAppendsTotal)

	offsets := writeJournal(t, path, 5)
	assert.Equal(t, before+5, testutil.ToFloat64(metrics.JournalAppendsTotal))
	assert.Equal(t, int64(0), offsets[0])

	frame, err := codec.Encode(fix(0))
	require.NoError(t, err)
	assert.Equal(t, int64(EntryOverhead+len(frame)), offsets[1])

	got, err := readAll(t, path)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, l := range got {
		assert.True(t, fix(i).Equal(l))
	}
}

func TestWriter_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.journal")
	writeJournal(t, path, 2)

	w, err := Open(WriterConfig{FilePath: path})
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), w.Size())

	off, err := w.Append(fix(2))
	require.NoError(t, err)
	assert.Equal(t, info.Size(), off)
	require.NoError(t, w.Close())

	got, err := readAll(t, path)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestWriter_FsyncInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.journal")
	w, err := Open(WriterConfig{FilePath: path, FsyncInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Append(fix(0))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Size() == w.Size()
	}, time.Second, 10*time.Millisecond)
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := Open(WriterConfig{FilePath: filepath.Join(t.TempDir(), "j")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Append(fix(0))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Sync(), ErrClosed)
}

func TestWriter_FailedWriteStopsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.journal")
	w, err := Open(WriterConfig{FilePath: path, BufferSize: 16})
	require.NoError(t, err)

	_, err = w.Append(fix(0))
	require.NoError(t, err)
	size := w.Size()

	// the frame no longer fits the buffer, so the write reaches the closed file
	require.NoError(t, w.file.Close())
	_, err = w.Append(fix(1))
	assert.ErrorIs(t, err, ErrBroken)
	assert.Equal(t, size, w.Size())

	_, err = w.Append(fix(2))
	assert.ErrorIs(t, err, ErrBroken)
	assert.Equal(t, size, w.Size())

	out, err := readAll(t, path)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestReader_Corruption(t *testing.T) {
	testCases := []struct {
		name   string
		damage func(t *testing.T, path string, offsets []int64)
		valid  int
	}{
		{
			name: "flipped payload byte",
			damage: func(t *testing.T, path string, offsets []int64) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				data[offsets[1]+EntryOverhead+codec.HeaderSize+3] ^= 0xff
				require.NoError(t, os.WriteFile(path, data, 0600))
			},
			valid: 1,
		},
		{
			name: "torn tail",
			damage: func(t *testing.T, path string, offsets []int64) {
				info, err := os.Stat(path)
				require.NoError(t, err)
				require.NoError(t, os.Truncate(path, info.Size()-5))
			},
			valid: 2,
		},
		{
			name: "torn header",
			damage: func(t *testing.T, path string, offsets []int64) {
				require.NoError(t, os.Truncate(path, offsets[2]+6))
			},
			valid: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixes.journal")
			offsets := writeJournal(t, path, 3)
			tc.damage(t, path, offsets)

			got, err := readAll(t, path)
			assert.True(t, errors.Is(err, ErrCorruption))
			assert.Len(t, got, tc.valid)
		})
	}
}

func TestRecover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.journal")
	offsets := writeJournal(t, path, 4)

	clean, err := Recover(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), clean.EntriesValidated)
	assert.False(t, clean.Truncated())

	// a partial write after the third entry
	require.NoError(t, os.Truncate(path, offsets[3]+10))

	res, err := Recover(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.EntriesValidated)
	assert.Equal(t, int64(10), res.BytesTruncated)
	assert.Equal(t, offsets[3], res.SizeAfter)
	assert.True(t, res.Truncated())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, offsets[3], info.Size())

	got, err := readAll(t, path)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecover_MissingFile(t *testing.T) {
	res, err := Recover(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Zero(t, res.EntriesValidated)
	assert.False(t, res.Truncated())
}
