// Package pool holds the scratch memory reads are staged in.
//
// A SlotPool owns two regions allocated once for its lifetime: a source region
// the cross-process read fills and a destination region the compressor writes
// into. Each region is cut into equal slots and slot i of one is paired with
// slot i of the other. Slots are handed out round-robin and each is guarded by
// its own mutex, so at most Slots() reads are in flight and two reads never
// share a slot at the same time.
package pool

import (
	"fmt"
	"math"
	e "memdump/error"
	"memdump/pkg/frame"
	"sync"
	"sync/atomic"
)

// BoundFunc returns the worst-case compressed size of n input bytes.
type BoundFunc func(n int) int

type SlotPool struct {
	slotSize    int
	dstSlotSize int
	slots       int

	src []byte
	dst []byte

	locks   []sync.Mutex
	counter atomic.Uint64
}

// New allocates slotSize*maxConcurrency source bytes and enough destination
// bytes per slot for bound(slotSize) plus the frame trailer.
func New(slotSize, maxConcurrency int, bound BoundFunc) (*SlotPool, error) {
	if slotSize <= 0 || uint64(slotSize) > math.MaxUint32 {
		return nil, fmt.Errorf("slot size %d out of range (1..%d)", slotSize, uint64(math.MaxUint32))
	}
	if maxConcurrency <= 0 {
		return nil, fmt.Errorf("max concurrency must be positive, got %d", maxConcurrency)
	}
	if bound == nil {
		return nil, fmt.Errorf("%w: compress bound is not resolved", e.BindingFailure)
	}

	worst := bound(slotSize)
	if worst < 0 {
		return nil, fmt.Errorf("compress bound for %d bytes is negative: %d", slotSize, worst)
	}

	p := &SlotPool{
		slotSize:    slotSize,
		dstSlotSize: worst + frame.TrailerWidth,
		slots:       maxConcurrency,
		locks:       make([]sync.Mutex, maxConcurrency),
	}
	p.src = make([]byte, p.slotSize*p.slots)
	p.dst = make([]byte, p.dstSlotSize*p.slots)

	return p, nil
}

func (p *SlotPool) SlotSize() int { return p.slotSize }

func (p *SlotPool) Slots() int { return p.slots }

// Check rejects request sizes a slot cannot hold.
func (p *SlotPool) Check(size int) error {
	if size < 0 || size > p.slotSize {
		return fmt.Errorf("%w: %d bytes requested, slot holds %d", e.OversizeRequest, size, p.slotSize)
	}
	return nil
}

// NextSlot advances the round-robin counter. Only the modulus matters, so
// counter wrap-around is harmless.
func (p *SlotPool) NextSlot() int {
	return int((p.counter.Add(1) - 1) % uint64(p.slots))
}

// Acquire takes the next slot and blocks until no other reader holds it.
func (p *SlotPool) Acquire() *Slot {
	idx := p.NextSlot()
	p.locks[idx].Lock()

	return &Slot{
		index: idx,
		pool:  p,
	}
}

// Slot is a locked (source, destination) pair. Its memory belongs to the
// pool; nothing obtained from it may be used after Release.
type Slot struct {
	index int
	pool  *SlotPool
	once  sync.Once
}

func (s *Slot) Index() int { return s.index }

// Source is the region the remote bytes are copied into.
func (s *Slot) Source() []byte {
	lo := s.index * s.pool.slotSize
	hi := lo + s.pool.slotSize
	return s.pool.src[lo:hi:hi]
}

// Destination is the region compressed output and trailer are written to.
func (s *Slot) Destination() []byte {
	lo := s.index * s.pool.dstSlotSize
	hi := lo + s.pool.dstSlotSize
	return s.pool.dst[lo:hi:hi]
}

// Release unlocks the slot. Calling it more than once is a no-op.
func (s *Slot) Release() {
	s.once.Do(func() {
		s.pool.locks[s.index].Unlock()
	})
}
