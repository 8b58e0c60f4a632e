package grpc

import (
	"context"
	"fmt"
	e "memdump/error"
	"memdump/pkg/native"
	"memdump/pkg/prowler"
	"memdump/service"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

type Client struct {
	addr    string
	timeout time.Duration
	conn    *grpc.ClientConn
	maxRecv int
}

func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		addr:    addr,
		timeout: time.Second * 30,
		conn:    conn,
	}
	info, err := c.Info()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s is not a explore server: %v", addr, err)
	}

	// replies carry whole slot frames, far above the 4 MiB default
	codec, ok := native.Lookup(info.Codec)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("server uses unknown codec %q", info.Codec)
	}
	c.maxRecv = maxMsgSize(info.SlotSize, codec.Bound)

	return c, nil
}

func (c *Client) ReadMemory(addr uint64, size int) ([]byte, error) {
	reply := new(ReadReply)
	if err := c.invoke("Read", &ReadRequest{Address: addr, Size: size}, reply); err != nil {
		return nil, err
	}
	return reply.Frame, nil
}

func (c *Client) Ranges(perms string) ([]prowler.MemoryRegion, error) {
	reply := new(RangesReply)
	if err := c.invoke("Ranges", &RangesRequest{Perms: perms}, reply); err != nil {
		return nil, err
	}
	return reply.Ranges, nil
}

func (c *Client) Info() (*service.ServerInfo, error) {
	info := new(service.ServerInfo)
	if err := c.invoke("Info", &InfoRequest{}, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) IsExploreServer() bool {
	_, err := c.Info()
	return err == nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(method string, req, reply interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var opts []grpc.CallOption
	if c.maxRecv > 0 {
		opts = append(opts, grpc.MaxCallRecvMsgSize(c.maxRecv))
	}

	err := c.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, reply, opts...)
	return fromStatus(err)
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", e.OversizeRequest, st.Message())
	case codes.Unavailable:
		// transport failures report Unavailable too
		if strings.HasPrefix(st.Message(), e.RemoteReadFailure.Error()) {
			return fmt.Errorf("%w: %s", e.RemoteReadFailure, st.Message())
		}
		return err
	default:
		return err
	}
}
