package prowler

import (
	"fmt"
	e "memdump/error"
	"memdump/pkg/frame"
)

// Chunk is one slot-sized piece of a larger read.
type Chunk struct {
	Base uint64
	Size int
}

// Split cuts [base, base+size) into chunks of at most max bytes.
func Split(base uint64, size, max int) []Chunk {
	if size <= 0 || max <= 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (size+max-1)/max)
	for size > 0 {
		n := max
		if size < n {
			n = size
		}
		chunks = append(chunks, Chunk{Base: base, Size: n})
		base += uint64(n)
		size -= n
	}

	return chunks
}

// ReadMemory fills bs with target memory at addr, going through the
// compress-on-read pipeline one slot at a time. On failure it returns the
// number of bytes that were read before it.
func (p *Prowler) ReadMemory(bs []byte, addr uint64) (int, error) {
	read := 0
	for _, c := range Split(addr, len(bs), p.pool.SlotSize()) {
		n, err := p.readChunk(c, bs[read:read+c.Size])
		read += n
		if err != nil {
			return read, err
		}
		if n < c.Size {
			return read, fmt.Errorf("%w: short read at %#x, %d of %d bytes", e.RemoteReadFailure, c.Base, n, c.Size)
		}
	}

	return read, nil
}

func (p *Prowler) readChunk(c Chunk, dst []byte) (int, error) {
	v, err := p.Read(c.Base, c.Size)
	if err != nil {
		return 0, err
	}
	defer v.Release()

	return frame.DecodeInto(p.Decompressor(), v.Bytes(), dst)
}

// Decompressor decodes frames produced by this Prowler.
func (p *Prowler) Decompressor() frame.Decompressor {
	return frame.DecompressFunc(p.caps.Decompress)
}

// ReadFull reads size bytes at addr, whatever the slot size.
func (p *Prowler) ReadFull(addr uint64, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", e.OversizeRequest, size)
	}

	buf := make([]byte, size)
	n, err := p.ReadMemory(buf, addr)
	return buf[:n], err
}
