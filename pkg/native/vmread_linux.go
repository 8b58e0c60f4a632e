//go:build linux

package native

import (
	"golang.org/x/sys/unix"
)

func platformVectorRead() VectorReadFunc {
	return processVMReadv
}

func processVMReadv(pid int, local []LocalIOVec, remote []RemoteIOVec, flags uint) (int, error) {
	localIov := make([]unix.Iovec, len(local))
	for i, l := range local {
		localIov[i].Base = l.Base
		localIov[i].SetLen(l.Len)
	}

	remoteIov := make([]unix.RemoteIovec, len(remote))
	for i, r := range remote {
		remoteIov[i] = unix.RemoteIovec{
			Base: r.Base,
			Len:  r.Len,
		}
	}

	return unix.ProcessVMReadv(pid, localIov, remoteIov, flags)
}
