package prowler

import (
	"fmt"
	"memdump/pkg/frame"
	"memdump/pkg/native"
	"memdump/pkg/pool"
)

const defaultProcRoot = "/proc"

// Prowler serves reads against one target process. It owns the slot pool it
// stages reads in; a pool must not be shared between Prowlers.
type Prowler struct {
	pid      int
	caps     *native.Capabilities
	pool     *pool.SlotPool
	accel    int
	procRoot string
}

type Option func(p *Prowler)

// WithAcceleration routes compression through CompressFast when accel > 1.
func WithAcceleration(accel int) Option {
	return func(p *Prowler) {
		p.accel = accel
	}
}

// WithProcRoot points range enumeration at another procfs mount.
func WithProcRoot(root string) Option {
	return func(p *Prowler) {
		p.procRoot = root
	}
}

func NewProwler(pid int, caps *native.Capabilities, slots *pool.SlotPool, opts ...Option) (*Prowler, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if slots == nil {
		return nil, fmt.Errorf("prowler for pid %d needs a slot pool", pid)
	}

	p := &Prowler{
		pid:      pid,
		caps:     caps,
		pool:     slots,
		accel:    1,
		procRoot: defaultProcRoot,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Prowler) Pid() int { return p.pid }

func (p *Prowler) Capabilities() *native.Capabilities { return p.caps }

func (p *Prowler) SlotSize() int { return p.pool.SlotSize() }

func (p *Prowler) Slots() int { return p.pool.Slots() }

// Read copies size bytes at addr out of the target, compresses them and
// returns a framed view over the slot they were staged in. The slot stays
// locked until the view is released.
func (p *Prowler) Read(addr uint64, size int) (*View, error) {
	if err := p.pool.Check(size); err != nil {
		return nil, err
	}

	slot := p.pool.Acquire()

	n, err := p.readRemote(addr, size, slot)
	if err != nil {
		slot.Release()
		return nil, err
	}

	b, err := p.compressAndFrame(slot, n)
	if err != nil {
		slot.Release()
		return nil, err
	}

	return &View{slot: slot, b: b}, nil
}

// ReadFrame is Read followed by a copy out of the slot.
func (p *Prowler) ReadFrame(addr uint64, size int) ([]byte, error) {
	v, err := p.Read(addr, size)
	if err != nil {
		return nil, err
	}
	defer v.Release()

	return v.Copy(), nil
}

// View is a framed read result aliasing pool memory.
type View struct {
	slot *pool.Slot
	b    []byte
}

// Bytes returns payload and trailer. The slice is only valid until Release.
func (v *View) Bytes() []byte { return v.b }

func (v *View) Payload() []byte {
	payload, _, _ := frame.Split(v.b)
	return payload
}

func (v *View) OriginalSize() uint32 {
	_, size, _ := frame.Split(v.b)
	return size
}

func (v *View) Copy() []byte {
	out := make([]byte, len(v.b))
	copy(out, v.b)
	return out
}

// Release hands the slot back to the pool.
func (v *View) Release() {
	v.b = nil
	v.slot.Release()
}
