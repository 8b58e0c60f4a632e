package service

import (
	"memdump/pkg/prowler"
)

// ServerInfo describes the process a server reads from and how its frames
// are encoded.
type ServerInfo struct {
	Pid      int    `json:"pid"`
	Codec    string `json:"codec"`
	SlotSize int    `json:"slot_size"`
	Slots    int    `json:"slots"`
}

// Client is the remote side of a Server.
type Client interface {
	// ReadMemory returns the framed, compressed bytes at addr.
	ReadMemory(addr uint64, size int) ([]byte, error)
	Ranges(perms string) ([]prowler.MemoryRegion, error)
	Info() (*ServerInfo, error)
	IsExploreServer() bool
	Close() error
}
