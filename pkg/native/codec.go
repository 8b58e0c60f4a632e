package native

import (
	"fmt"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is a block codec that compresses into a caller-owned buffer.
// Compress must succeed whenever len(dst) >= Bound(len(src)).
type Codec interface {
	Name() string
	Bound(n int) int
	Compress(src, dst []byte) (int, error)
	CompressFast(src, dst []byte, accel int) (int, error)
	Decompress(src, dst []byte) (int, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = map[string]Codec{}
)

func init() {
	Register(lz4Codec{})
	Register(&zstdCodec{})
	Register(rawCodec{})
}

// Register makes a codec available to WithCodec. A codec registered under an
// existing name replaces it.
func Register(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[c.Name()] = c
}

func Lookup(name string) (Codec, bool) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[name]
	return c, ok
}

// Codecs returns the registered codec names in sorted order.
func Codecs() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// lz4Codec produces raw LZ4 blocks, the format lz4.block.decompress and
// LZ4_decompress_safe expect.
type lz4Codec struct{}

var lz4Compressors = sync.Pool{
	New: func() interface{} {
		return new(lz4.Compressor)
	},
}

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) Bound(n int) int {
	return lz4.CompressBlockBound(n)
}

func (lz4Codec) Compress(src, dst []byte) (int, error) {
	return lz4.CompressBlock(src, dst, nil)
}

// CompressFast reuses a pooled hash table. The pure Go encoder has a single
// speed, so accel is accepted and ignored.
func (lz4Codec) CompressFast(src, dst []byte, accel int) (int, error) {
	c := lz4Compressors.Get().(*lz4.Compressor)
	defer lz4Compressors.Put(c)
	return c.CompressBlock(src, dst)
}

func (lz4Codec) Decompress(src, dst []byte) (int, error) {
	return lz4.UncompressBlock(src, dst)
}

// zstdCodec emits one zstd frame per block. Encoders are built on first use.
type zstdCodec struct {
	once    sync.Once
	enc     *zstd.Encoder
	fastEnc *zstd.Encoder
	dec     *zstd.Decoder
	err     error
}

func (z *zstdCodec) init() error {
	z.once.Do(func() {
		if z.enc, z.err = zstd.NewWriter(nil); z.err != nil {
			return
		}
		if z.fastEnc, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil)
	})

	return z.err
}

func (z *zstdCodec) Name() string { return "zstd" }

// Bound follows ZSTD_COMPRESSBOUND.
func (z *zstdCodec) Bound(n int) int {
	const blockMax = 128 << 10
	margin := 0
	if n < blockMax {
		margin = (blockMax - n) >> 11
	}
	return n + n>>8 + margin
}

func (z *zstdCodec) Compress(src, dst []byte) (int, error) {
	if err := z.init(); err != nil {
		return 0, err
	}
	return encodeInto(z.enc, src, dst)
}

// CompressFast switches to the fastest encoder level when accel > 1.
func (z *zstdCodec) CompressFast(src, dst []byte, accel int) (int, error) {
	if err := z.init(); err != nil {
		return 0, err
	}
	if accel > 1 {
		return encodeInto(z.fastEnc, src, dst)
	}
	return encodeInto(z.enc, src, dst)
}

func (z *zstdCodec) Decompress(src, dst []byte) (int, error) {
	if err := z.init(); err != nil {
		return 0, err
	}

	out, err := z.dec.DecodeAll(src, dst[:0:len(dst)])
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, fmt.Errorf("zstd: decoded %d bytes into a %d byte buffer", len(out), len(dst))
	}

	return len(out), nil
}

// encodeInto appends into dst without letting append grow past len(dst);
// a result longer than dst means the encoder had to reallocate.
func encodeInto(enc *zstd.Encoder, src, dst []byte) (int, error) {
	out := enc.EncodeAll(src, dst[:0:len(dst)])
	if len(out) > len(dst) {
		return 0, fmt.Errorf("zstd: %d bytes do not fit a %d byte buffer", len(out), len(dst))
	}

	return len(out), nil
}

// rawCodec stores the bytes as they are.
type rawCodec struct{}

func (rawCodec) Name() string { return "none" }

func (rawCodec) Bound(n int) int { return n }

func (rawCodec) Compress(src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("none: %d bytes do not fit a %d byte buffer", len(src), len(dst))
	}
	return copy(dst, src), nil
}

func (r rawCodec) CompressFast(src, dst []byte, _ int) (int, error) {
	return r.Compress(src, dst)
}

func (r rawCodec) Decompress(src, dst []byte) (int, error) {
	return r.Compress(src, dst)
}
