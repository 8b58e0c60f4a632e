package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	e "memdump/error"
	"memdump/pkg/frame"
	"memdump/pkg/pool"
	"memdump/pkg/prowler"
	"memdump/pkg/testutil"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pid  = 4242
	maps = "00400000-00401000 r-xp 00000000 fd:01 1234 /usr/bin/target\n" +
		"7f0000000000-7f0000001000 rw-p 00000000 00:00 0 [heap]\n"
)

func startServer(t *testing.T, target *testutil.FakeTarget) (*Client, *Server) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, fmt.Sprint(pid)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprint(pid), "maps"), []byte(maps), 0644))

	caps, err := target.Bind("zstd")
	require.NoError(t, err)
	sp, err := pool.New(4096, 1, caps.CompressBound)
	require.NoError(t, err)
	p, err := prowler.NewProwler(pid, caps, sp, prowler.WithProcRoot(root))
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := NewServer(lis, p)
	require.NoError(t, s.Run())
	t.Cleanup(func() {
		s.Stop()
		<-s.StopChan
	})

	c, err := NewClient(s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, s
}

func TestClientRead(t *testing.T) {
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 300)
	target := testutil.NewFakeTarget()
	target.Map(0x7f0000000000, data)
	c, s := startServer(t, target)

	b, err := c.ReadMemory(0x7f0000000000, len(data))
	require.NoError(t, err)

	out, err := frame.Decode(s.Prowler.Decompressor(), b, s.Prowler.SlotSize())
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestClientInfoAndRanges(t *testing.T) {
	c, _ := startServer(t, testutil.NewFakeTarget())

	info, err := c.Info()
	require.NoError(t, err)
	assert.Equal(t, pid, info.Pid)
	assert.Equal(t, "zstd", info.Codec)

	ranges, err := c.Ranges("r-x")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "/usr/bin/target", ranges[0].Path)
}

func TestClientErrors(t *testing.T) {
	c, _ := startServer(t, testutil.NewFakeTarget())

	_, err := c.ReadMemory(0x1000, 4097)
	assert.True(t, errors.Is(err, e.OversizeRequest), err)

	_, err = c.ReadMemory(0x1000, 16)
	assert.True(t, errors.Is(err, e.RemoteReadFailure), err)
}

func TestNotExploreServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewClient(ts.Listener.Addr().String())
	assert.Error(t, err)
}

func TestUnknownRoute(t *testing.T) {
	_, s := startServer(t, testutil.NewFakeTarget())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", bytes.NewReader([]byte(`{}`))))

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
