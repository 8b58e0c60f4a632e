package grpc

import (
	"context"
	"errors"
	e "memdump/error"
	"memdump/pkg/config"
	"memdump/pkg/logflags"
	"memdump/pkg/prowler"
	"memdump/service"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	service.ServerImpl
	grpcServer *grpc.Server
}

func NewServer(listener net.Listener, p *prowler.Prowler) *Server {
	s := &Server{
		ServerImpl: service.ServerImpl{
			Logger:   logflags.GRPCLogger(),
			Listener: listener,
			StopChan: make(chan struct{}),
			Prowler:  p,
		},
	}

	size := maxMsgSize(p.SlotSize(), p.Capabilities().CompressBound)
	s.grpcServer = grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.MaxRecvMsgSize(size),
		grpc.MaxSendMsgSize(size),
		grpc.UnaryInterceptor(s.logCall),
	)
	s.grpcServer.RegisterService(&explorerServiceDesc, s)

	return s
}

func (s *Server) Run() error {
	go func() {
		defer close(s.StopChan)
		if err := s.grpcServer.Serve(s.Listener); err != nil {
			s.Logger.Errorf("grpc server stopped: %v", err)
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	s.grpcServer.GracefulStop()
	return nil
}

func (s *Server) Read(ctx context.Context, req *ReadRequest) (*ReadReply, error) {
	b, err := s.Prowler.ReadFrame(req.Address, req.Size)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReadReply{Frame: b}, nil
}

func (s *Server) Ranges(ctx context.Context, req *RangesRequest) (*RangesReply, error) {
	perms := req.Perms
	if perms == "" {
		perms = config.DefaultPerms
	}

	ranges, err := s.Prowler.Ranges(perms)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RangesReply{Ranges: ranges}, nil
}

func (s *Server) Info(ctx context.Context, req *InfoRequest) (*service.ServerInfo, error) {
	return s.ServerImpl.Info(), nil
}

func (s *Server) logCall(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Errorf("%s %+v: %v", info.FullMethod, req, err)
	} else {
		s.Logger.Debugf("%s %+v: ok", info.FullMethod, req)
	}
	return resp, err
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, e.OversizeRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.RemoteReadFailure):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
