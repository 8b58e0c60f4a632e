// Package frame defines the byte layout produced by a memory read,
//
//	[compressed payload][original size: uint32, little-endian]
//
// and decodes it on the receiving side.
package frame

import (
	"encoding/binary"
	"fmt"
	e "memdump/error"
)

// TrailerWidth is the size of the original-length trailer in bytes.
const TrailerWidth = 4

// Decompressor inflates src into dst and returns the decoded length.
// native.Codec implementations satisfy it.
type Decompressor interface {
	Decompress(src, dst []byte) (int, error)
}

// DecompressFunc adapts a bound decompress handle to Decompressor.
type DecompressFunc func(src, dst []byte) (int, error)

func (f DecompressFunc) Decompress(src, dst []byte) (int, error) {
	return f(src, dst)
}

// PutTrailer writes size right after the payload and returns the framed
// slice buf[:payloadLen+TrailerWidth].
func PutTrailer(buf []byte, payloadLen int, size uint32) []byte {
	binary.LittleEndian.PutUint32(buf[payloadLen:payloadLen+TrailerWidth], size)
	return buf[:payloadLen+TrailerWidth]
}

// Split separates the payload from the trailer.
func Split(b []byte) (payload []byte, size uint32, err error) {
	if len(b) < TrailerWidth {
		return nil, 0, fmt.Errorf("%w: %d bytes is shorter than the trailer", e.InvalidFrame, len(b))
	}

	n := len(b) - TrailerWidth
	return b[:n], binary.LittleEndian.Uint32(b[n:]), nil
}

// Decode decompresses a frame. Frames announcing more
// than limit bytes are rejected before anything is allocated; limit <= 0
// disables the check.
func Decode(d Decompressor, b []byte, limit int) ([]byte, error) {
	_, size, err := Split(b)
	if err != nil {
		return nil, err
	}
	if limit > 0 && uint64(size) > uint64(limit) {
		return nil, fmt.Errorf("%w: original size %d exceeds limit %d", e.InvalidFrame, size, limit)
	}

	out := make([]byte, size)
	if _, err := DecodeInto(d, b, out); err != nil {
		return nil, err
	}

	return out, nil
}

// DecodeInto decompresses a frame into dst, which must hold at least the
// original size. It returns the original size.
func DecodeInto(d Decompressor, b []byte, dst []byte) (int, error) {
	payload, size, err := Split(b)
	if err != nil {
		return 0, err
	}
	if uint64(size) > uint64(len(dst)) {
		return 0, fmt.Errorf("%w: original size %d does not fit %d bytes", e.InvalidFrame, size, len(dst))
	}
	if size == 0 {
		if len(payload) != 0 {
			return 0, fmt.Errorf("%w: %d payload bytes for an empty read", e.InvalidFrame, len(payload))
		}
		return 0, nil
	}

	n, err := d.Decompress(payload, dst[:size])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", e.InvalidFrame, err)
	}
	if n != int(size) {
		return 0, fmt.Errorf("%w: decoded %d bytes, trailer says %d", e.InvalidFrame, n, size)
	}

	return n, nil
}
