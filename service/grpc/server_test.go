package grpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	e "memdump/error"
	"memdump/pkg/frame"
	"memdump/pkg/native"
	"memdump/pkg/pool"
	"memdump/pkg/prowler"
	"memdump/pkg/testutil"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const (
	pid  = 4242
	maps = "00400000-00401000 r-xp 00000000 fd:01 1234 /usr/bin/target\n" +
		"7f0000000000-7f0000001000 rw-p 00000000 00:00 0 [heap]\n"
)

func startServer(t *testing.T, target *testutil.FakeTarget) (*Client, *prowler.Prowler) {
	t.Helper()
	return startServerWithSlot(t, target, 4096)
}

func startServerWithSlot(t *testing.T, target *testutil.FakeTarget, slotSize int) (*Client, *prowler.Prowler) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, fmt.Sprint(pid)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprint(pid), "maps"), []byte(maps), 0644))

	caps, err := target.Bind("lz4")
	require.NoError(t, err)
	sp, err := pool.New(slotSize, 2, caps.CompressBound)
	require.NoError(t, err)
	p, err := prowler.NewProwler(pid, caps, sp, prowler.WithProcRoot(root))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	s := NewServer(lis, p)
	require.NoError(t, s.Run())
	t.Cleanup(func() {
		s.Stop()
		<-s.StopChan
	})

	c, err := NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, p
}

func TestClientRead(t *testing.T) {
	data := bytes.Repeat([]byte("grpc"), 256)
	target := testutil.NewFakeTarget()
	target.Map(0x7f0000000000, data)
	c, p := startServer(t, target)

	b, err := c.ReadMemory(0x7f0000000000, len(data))
	require.NoError(t, err)

	_, size, err := frame.Split(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(data)), size)

	out, err := frame.Decode(p.Decompressor(), b, p.SlotSize())
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestClientInfo(t *testing.T) {
	c, _ := startServer(t, testutil.NewFakeTarget())

	info, err := c.Info()
	require.NoError(t, err)
	assert.Equal(t, pid, info.Pid)
	assert.Equal(t, native.DefaultCodec, info.Codec)
	assert.Equal(t, 4096, info.SlotSize)
	assert.Equal(t, 2, info.Slots)
}

func TestClientRanges(t *testing.T) {
	c, _ := startServer(t, testutil.NewFakeTarget())

	ranges, err := c.Ranges("rw-")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "[heap]", ranges[0].Path)

	ranges, err = c.Ranges("")
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
}

func TestClientErrors(t *testing.T) {
	target := testutil.NewFakeTarget()
	c, _ := startServer(t, target)

	_, err := c.ReadMemory(0x1000, 4097)
	assert.True(t, errors.Is(err, e.OversizeRequest), err)

	_, err = c.ReadMemory(0x1000, 16)
	assert.True(t, errors.Is(err, e.RemoteReadFailure), err)
}

func TestClientReadIncompressibleSlot(t *testing.T) {
	const slotSize = 8 << 20

	data := make([]byte, slotSize)
	rand.New(rand.NewSource(1)).Read(data)

	target := testutil.NewFakeTarget()
	target.Map(0x10000000, data)
	c, p := startServerWithSlot(t, target, slotSize)

	b, err := c.ReadMemory(0x10000000, slotSize)
	require.NoError(t, err)
	assert.Greater(t, len(b), 4<<20)

	out, err := frame.Decode(p.Decompressor(), b, slotSize)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, out))
}

func TestMaxMsgSize(t *testing.T) {
	codec, ok := native.Lookup("lz4")
	require.True(t, ok)

	n := maxMsgSize(64<<20, codec.Bound)
	assert.Greater(t, n, (codec.Bound(64<<20)+frame.TrailerWidth)*4/3)
	assert.Equal(t, math.MaxInt32, maxMsgSize(math.MaxUint32, codec.Bound))
}
