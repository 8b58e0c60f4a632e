// Package testutil provides an in-memory stand-in for a target process.
package testutil

import (
	"errors"
	"memdump/pkg/native"
	"sort"
	"sync"
	"unsafe"
)

var ErrFault = errors.New("bad address")

type mapping struct {
	base uint64
	data []byte
}

// FakeTarget serves VectorRead calls from registered mappings. Reads that
// start outside every mapping fail with ErrFault; reads running past the end
// of a mapping are short, like process_vm_readv.
type FakeTarget struct {
	mu       sync.Mutex
	mappings []mapping
	calls    int
	fail     error
}

func NewFakeTarget() *FakeTarget {
	return &FakeTarget{}
}

// Map places a copy of data at base.
func (f *FakeTarget) Map(base uint64, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	f.mappings = append(f.mappings, mapping{base: base, data: buf})
	sort.Slice(f.mappings, func(i, j int) bool {
		return f.mappings[i].base < f.mappings[j].base
	})
}

// FailWith makes every following read return err. nil restores reads.
func (f *FakeTarget) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *FakeTarget) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeTarget) VectorRead(pid int, local []native.LocalIOVec, remote []native.RemoteIOVec, flags uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.fail != nil {
		return -1, f.fail
	}

	total := 0
	for i, r := range remote {
		if i >= len(local) {
			break
		}
		dst := unsafe.Slice(local[i].Base, local[i].Len)

		m, ok := f.find(uint64(r.Base))
		if !ok {
			if total == 0 {
				return -1, ErrFault
			}
			return total, nil
		}

		off := uint64(r.Base) - m.base
		n := copy(dst[:min(len(dst), r.Len)], m.data[off:])
		total += n
		if n < r.Len {
			return total, nil
		}
	}

	return total, nil
}

func (f *FakeTarget) find(addr uint64) (mapping, bool) {
	for _, m := range f.mappings {
		if addr >= m.base && addr < m.base+uint64(len(m.data)) {
			return m, true
		}
	}
	return mapping{}, false
}

// Bind returns a capability table whose cross-process read is served by f.
func (f *FakeTarget) Bind(codec string) (*native.Capabilities, error) {
	return native.Bind(native.WithCodec(codec), native.WithVectorRead(f.VectorRead))
}
