package grpc

import (
	"context"
	"math"
	"memdump/pkg/frame"
	"memdump/pkg/prowler"
	"memdump/service"

	"google.golang.org/grpc"
)

const serviceName = "memdump.Explorer"

type ReadRequest struct {
	Address uint64 `json:"address"`
	Size    int    `json:"size"`
}

type ReadReply struct {
	Frame []byte `json:"frame"`
}

type RangesRequest struct {
	Perms string `json:"perms"`
}

type RangesReply struct {
	Ranges []prowler.MemoryRegion `json:"ranges"`
}

type InfoRequest struct{}

// maxMsgSize is the largest message a Read reply can reach: one full slot
// frame, base64 encoded by the JSON codec, plus room for the envelope.
func maxMsgSize(slotSize int, bound func(int) int) int {
	n := int64(bound(slotSize)) + frame.TrailerWidth
	n = (n+2)/3*4 + 1<<10
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// ExplorerServer is the server API of the memdump.Explorer service.
type ExplorerServer interface {
	Read(context.Context, *ReadRequest) (*ReadReply, error)
	Ranges(context.Context, *RangesRequest) (*RangesReply, error)
	Info(context.Context, *InfoRequest) (*service.ServerInfo, error)
}

func readHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExplorerServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Read",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExplorerServer).Read(ctx, req.(*ReadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func rangesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RangesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExplorerServer).Ranges(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Ranges",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExplorerServer).Ranges(ctx, req.(*RangesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func infoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExplorerServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Info",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExplorerServer).Info(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var explorerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ExplorerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Read", Handler: readHandler},
		{MethodName: "Ranges", Handler: rangesHandler},
		{MethodName: "Info", Handler: infoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "memdump/explorer",
}
