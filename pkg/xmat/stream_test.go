package xmat

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteStreamOverwriteAndExtend(t *testing.T) {
	t.Parallel()

	s := NewByteWriter(LittleEndian)
	require.NoError(t, s.WriteBytes([]byte{1, 2}))
	_, err := s.Seek(1, io.SeekStart)
	require.NoError(t, err)
	require.NoError(t, s.WriteBytes([]byte{9, 9, 9}))
	assert.Equal(t, []byte{1, 9, 9, 9}, s.Bytes())

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.EqualValues(t, 4, pos)
}

func TestByteStreamReuseClearsCapacity(t *testing.T) {
	t.Parallel()

	s := NewByteWriter(LittleEndian)
	require.NoError(t, s.WriteBytes([]byte{0xff, 0xff, 0xff, 0xff}))
	require.NoError(t, s.reset())
	require.NoError(t, s.WriteBytes([]byte{1}))
	assert.Equal(t, []byte{1}, s.Bytes())
}

func TestByteStreamReadPastEnd(t *testing.T) {
	t.Parallel()

	s := NewByteReader([]byte{1, 2, 3}, LittleEndian)
	_, err := s.ReadBytes(4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	got, err := s.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestByteStreamModes(t *testing.T) {
	t.Parallel()

	w := NewByteWriter(LittleEndian)
	_, err := w.ReadBytes(1)
	require.ErrorIs(t, err, ErrWrongMode)
	require.ErrorIs(t, w.Push([]byte{1}), ErrWrongMode)

	r := NewByteReader(nil, LittleEndian)
	require.ErrorIs(t, r.WriteBytes([]byte{1}), ErrWrongMode)
	require.ErrorIs(t, r.WriteBytes([]byte{1}), ErrUsage)
}

func TestByteStreamPush(t *testing.T) {
	t.Parallel()

	s := NewByteReader(nil, LittleEndian)
	_, err := s.ReadBytes(2)
	require.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, s.Push([]byte{1}))
	require.NoError(t, s.Push([]byte{2}))
	got, err := s.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)
}

func TestSeekOutOfRangeKeepsCursor(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		offset int64
		whence int
	}{
		{-1, io.SeekStart},
		{5, io.SeekStart},
		{-3, io.SeekCurrent},
		{3, io.SeekCurrent},
		{1, io.SeekEnd},
		{-5, io.SeekEnd},
	} {
		s := NewByteReader([]byte{1, 2, 3, 4}, LittleEndian)
		_, err := s.Seek(2, io.SeekStart)
		require.NoError(t, err)

		pos, err := s.Seek(tc.offset, tc.whence)
		require.ErrorIs(t, err, ErrOutOfRange, "seek(%d, %d)", tc.offset, tc.whence)
		assert.EqualValues(t, 2, pos)
		cur, err := s.Tell()
		require.NoError(t, err)
		assert.EqualValues(t, 2, cur)
	}
}

func TestStreamCloseIdempotent(t *testing.T) {
	t.Parallel()

	s := NewByteWriter(LittleEndian)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.WriteBytes([]byte{1}), ErrClosed)

	path := filepath.Join(t.TempDir(), "closed.bin")
	fs, err := CreateFileStream(path, LittleEndian)
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
	_, err = fs.Tell()
	require.ErrorIs(t, err, ErrClosed)
}

func TestFileStreamSizeKeepsCursor(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "size.bin")
	w, err := CreateFileStream(path, BigEndian)
	require.NoError(t, err)
	require.NoError(t, WriteScalar(w, uint32(0x01020304)))
	require.NoError(t, WriteScalar(w, uint16(0x0506)))
	_, err = w.Seek(2, io.SeekStart)
	require.NoError(t, err)

	size, err := w.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 6, size)
	pos, err := w.Tell()
	require.NoError(t, err)
	assert.EqualValues(t, 2, pos)
	require.NoError(t, w.Close())

	r, err := OpenFileStream(path, BigEndian)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	x, err := ReadScalar[uint32](r)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), x)
	y, err := ReadScalar[uint16](r)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0506), y)
	_, err = r.ReadBytes(1)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWriteReadSwapsNonNativeOrder(t *testing.T) {
	t.Parallel()

	s := NewByteWriter(BigEndian)
	require.NoError(t, WriteScalar(s, int16(-2)))
	require.NoError(t, WriteScalar(s, complex64(complex(1, -1))))
	require.NoError(t, Write(s, Bytes([]byte("ab"))))
	assert.Equal(t, []byte{
		0xff, 0xfe,
		0x3f, 0x80, 0x00, 0x00, 0xbf, 0x80, 0x00, 0x00,
		'a', 'b',
	}, s.Bytes())

	r := NewByteReader(s.Bytes(), BigEndian)
	i, err := ReadScalar[int16](r)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i)
	c, err := Read[complex64](r, 1)
	require.NoError(t, err)
	assert.Equal(t, []complex64{complex(1, -1)}, c)
	b, err := Read[uint8](r, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8("ab"), b)
}
