package service

import (
	"memdump/pkg/logflags"
	"memdump/pkg/prowler"
	"net"
)

// Server represents a server for a remote client
// to connect to.
type Server interface {
	Run() error
	Stop() error
	Addr() net.Addr
}

type ServerImpl struct {
	Logger   logflags.Logger
	Listener net.Listener
	StopChan chan struct{}
	Prowler  *prowler.Prowler
}

func (si *ServerImpl) Info() *ServerInfo {
	p := si.Prowler
	return &ServerInfo{
		Pid:      p.Pid(),
		Codec:    p.Capabilities().Codec,
		SlotSize: p.SlotSize(),
		Slots:    p.Slots(),
	}
}

func (si *ServerImpl) Addr() net.Addr {
	return si.Listener.Addr()
}
