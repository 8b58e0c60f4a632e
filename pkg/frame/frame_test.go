package frame_test

import (
	"bytes"
	e "memdump/error"
	"memdump/pkg/frame"
	"memdump/pkg/native"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(t *testing.T, name string) native.Codec {
	t.Helper()
	codec, ok := native.Lookup(name)
	require.True(t, ok)
	return codec
}

func encode(t *testing.T, codec native.Codec, src []byte) []byte {
	t.Helper()
	buf := make([]byte, codec.Bound(len(src))+frame.TrailerWidth)
	n, err := codec.Compress(src, buf)
	require.NoError(t, err)
	return frame.PutTrailer(buf, n, uint32(len(src)))
}

func TestSplit(t *testing.T) {
	payload, size, err := frame.Split([]byte{0xaa, 0xbb, 0x10, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, payload)
	assert.Equal(t, uint32(16), size)

	_, _, err = frame.Split([]byte{1, 2, 3})
	assert.ErrorIs(t, err, e.InvalidFrame)
}

func TestPutTrailerLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	out := frame.PutTrailer(buf, 2, 0x01020304)
	assert.Equal(t, []byte{0, 0, 0x04, 0x03, 0x02, 0x01}, out)
}

func TestDecode(t *testing.T) {
	for _, codec := range native.Codecs() {
		dec := lookup(t, codec)
		src := bytes.Repeat([]byte("frame"), 300)

		out, err := frame.Decode(dec, encode(t, dec, src), 0)
		require.NoError(t, err, codec)
		assert.Equal(t, src, out, codec)
	}
}

func TestDecodeEmpty(t *testing.T) {
	dec := lookup(t, "lz4")

	out, err := frame.Decode(dec, []byte{0, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = frame.Decode(dec, []byte{9, 0, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, e.InvalidFrame)
}

func TestDecodeLimit(t *testing.T) {
	dec := lookup(t, "lz4")
	b := encode(t, dec, make([]byte, 1024))

	_, err := frame.Decode(dec, b, 512)
	assert.ErrorIs(t, err, e.InvalidFrame)

	out, err := frame.Decode(dec, b, 1024)
	require.NoError(t, err)
	assert.Len(t, out, 1024)
}

func TestDecodeSizeMismatch(t *testing.T) {
	dec := lookup(t, "none")
	b := frame.PutTrailer([]byte{1, 2, 3, 0, 0, 0, 0}, 3, 5)

	_, err := frame.Decode(dec, b, 0)
	assert.ErrorIs(t, err, e.InvalidFrame)
}

func TestDecompressFunc(t *testing.T) {
	codec := lookup(t, "lz4")
	b := encode(t, codec, []byte("adapted"))

	out, err := frame.Decode(frame.DecompressFunc(codec.Decompress), b, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("adapted"), out)
}

func TestDecodeInto(t *testing.T) {
	dec := lookup(t, "lz4")
	src := bytes.Repeat([]byte{7}, 100)
	b := encode(t, dec, src)

	dst := make([]byte, 128)
	n, err := frame.DecodeInto(dec, b, dst)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, src, dst[:n])

	_, err = frame.DecodeInto(dec, b, make([]byte, 99))
	assert.ErrorIs(t, err, e.InvalidFrame)
}
