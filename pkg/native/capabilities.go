// Package native binds the routines the read pipeline calls into: a block
// compression codec and the operating system's cross-process vector read.
//
// Everything above this package depends only on Capabilities. How a handle
// was resolved (pure Go codec, syscall wrapper, test double) stays here.
package native

import (
	"fmt"
	e "memdump/error"
	"sync"
)

const DefaultCodec = "lz4"

// LocalIOVec describes a buffer in the calling process.
type LocalIOVec struct {
	Base *byte
	Len  int
}

// RemoteIOVec describes a range in the target process. Base is never
// dereferenced locally.
type RemoteIOVec struct {
	Base uintptr
	Len  int
}

// VectorReadFunc copies the remote segments into the local segments and
// returns the number of bytes transferred.
type VectorReadFunc func(pid int, local []LocalIOVec, remote []RemoteIOVec, flags uint) (int, error)

// Capabilities is the bound function table. It is immutable once returned by
// a Binder.
type Capabilities struct {
	Codec           string
	CompressBounded func(src, dst []byte) (int, error)
	CompressFast    func(src, dst []byte, accel int) (int, error)
	CompressBound   func(n int) int
	Decompress      func(src, dst []byte) (int, error)
	VectorRead      VectorReadFunc
}

// Validate reports the first handle that is not bound.
func (c *Capabilities) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: no capability table", e.BindingFailure)
	}

	missing := ""
	switch {
	case c.CompressBounded == nil:
		missing = "compress_bounded"
	case c.CompressFast == nil:
		missing = "compress_fast"
	case c.CompressBound == nil:
		missing = "compress_bound"
	case c.Decompress == nil:
		missing = "decompress"
	case c.VectorRead == nil:
		missing = "cross_process_read"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s is not resolved", e.BindingFailure, missing)
	}

	return nil
}

type Option func(b *Binder)

// WithCodec selects the compression codec by registered name.
func WithCodec(name string) Option {
	return func(b *Binder) {
		b.codec = name
	}
}

// WithVectorRead replaces the platform cross-process read.
func WithVectorRead(fn VectorReadFunc) Option {
	return func(b *Binder) {
		b.vectorRead = fn
	}
}

// Binder resolves a Capabilities table exactly once. Later calls to
// Initialize return the same table and the same error.
type Binder struct {
	codec      string
	vectorRead VectorReadFunc

	once sync.Once
	caps *Capabilities
	err  error
}

func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		codec:      DefaultCodec,
		vectorRead: platformVectorRead(),
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Bind is NewBinder(opts...).Initialize().
func Bind(opts ...Option) (*Capabilities, error) {
	return NewBinder(opts...).Initialize()
}

func (b *Binder) Initialize() (*Capabilities, error) {
	b.once.Do(func() {
		b.caps, b.err = b.bind()
	})

	return b.caps, b.err
}

func (b *Binder) bind() (*Capabilities, error) {
	codec, ok := Lookup(b.codec)
	if !ok {
		return nil, fmt.Errorf("%w: codec %q is not registered", e.BindingFailure, b.codec)
	}

	caps := &Capabilities{
		Codec:           codec.Name(),
		CompressBounded: codec.Compress,
		CompressFast:    codec.CompressFast,
		CompressBound:   codec.Bound,
		Decompress:      codec.Decompress,
		VectorRead:      b.vectorRead,
	}
	if err := caps.Validate(); err != nil {
		return nil, err
	}

	return caps, nil
}
