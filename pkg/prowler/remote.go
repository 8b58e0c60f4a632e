package prowler

import (
	"fmt"
	e "memdump/error"
	"memdump/pkg/native"
	"memdump/pkg/pool"
)

// readRemote fills the slot's source region with length bytes from addr in
// the target. A failed transfer is reported as is; it is never retried.
func (p *Prowler) readRemote(addr uint64, length int, slot *pool.Slot) (int, error) {
	if length == 0 {
		return 0, nil
	}

	data := slot.Source()[:length]

	localIov := []native.LocalIOVec{
		{
			Base: &data[0],
			Len:  length,
		},
	}

	remoteIov := []native.RemoteIOVec{
		{
			Base: uintptr(addr),
			Len:  length,
		},
	}

	n, err := p.caps.VectorRead(p.pid, localIov, remoteIov, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: pid %d at %#x+%d: %w", e.RemoteReadFailure, p.pid, addr, length, err)
	}
	if n < 0 || n > length {
		return 0, fmt.Errorf("%w: pid %d at %#x+%d: transferred %d bytes", e.RemoteReadFailure, p.pid, addr, length, n)
	}

	return n, nil
}
