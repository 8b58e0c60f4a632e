package prowler

import (
	"fmt"
	e "memdump/error"
	"memdump/pkg/frame"
	"memdump/pkg/pool"
)

// compressAndFrame compresses the first n source bytes of the slot into its
// destination region and appends the trailer. The result aliases the slot.
func (p *Prowler) compressAndFrame(slot *pool.Slot, n int) ([]byte, error) {
	dst := slot.Destination()

	// empty reads carry only the trailer
	if n == 0 {
		return frame.PutTrailer(dst, 0, 0), nil
	}

	bound := p.caps.CompressBound(n)
	if bound <= 0 || bound+frame.TrailerWidth > len(dst) {
		return nil, fmt.Errorf("%w: bound %d for %d bytes exceeds the %d byte slot", e.CompressionFailure, bound, n, len(dst))
	}

	src := slot.Source()[:n]

	var (
		c   int
		err error
	)
	if p.accel > 1 {
		c, err = p.caps.CompressFast(src, dst[:bound], p.accel)
	} else {
		c, err = p.caps.CompressBounded(src, dst[:bound])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", e.CompressionFailure, p.caps.Codec, err)
	}
	if c <= 0 || c > bound {
		return nil, fmt.Errorf("%w: %s returned %d for %d bytes", e.CompressionFailure, p.caps.Codec, c, n)
	}

	return frame.PutTrailer(dst, c, uint32(n)), nil
}
