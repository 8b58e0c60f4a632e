package cmd

import (
	"errors"
	"io"
	"memdump/pkg/config"
	"memdump/pkg/dump"
	"memdump/pkg/prowler"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newTestApp() *cli.App {
	app := NewExp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app
}

// configOf runs the app with args followed by a command that captures the
// resulting configuration.
func configOf(args ...string) (*config.Config, error) {
	var cfg *config.Config
	app := newTestApp()
	app.Commands = append(app.Commands, cli.Command{
		Name: "show-config",
		Action: func(ctx *cli.Context) (err error) {
			cfg, err = loadConfig(ctx)
			return err
		},
	})

	err := app.Run(append(append([]string{"memdump"}, args...), "show-config"))
	return cfg, err
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot_size: 4096\ncodec: zstd\nmax_concurrency: 3\n"), 0644))

	cfg, err := configOf("--config", path, "--slot-size", "8192", "--max-range", "65536")
	require.NoError(t, err)
	assert.Equal(t, 8192, cfg.SlotSize)
	assert.Equal(t, "zstd", cfg.Codec)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, uint64(65536), cfg.MaxRangeSize)

	cfg, err = configOf()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := configOf("--codec", "brotli")
	assert.ErrorContains(t, err, "unknown codec")

	_, err = configOf("--slot-size", "0")
	assert.ErrorContains(t, err, "slot_size")

	path := filepath.Join(t.TempDir(), "memdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: 0\n"), 0644))
	_, err = configOf("--config", path)
	assert.ErrorContains(t, err, "max_concurrency")

	_, err = configOf("--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type memReader struct {
	data []byte
	err  error
}

func (m memReader) ReadMemory(buf []byte, addr uint64) (int, error) {
	n := copy(buf, m.data)
	if n < len(buf) {
		return n, m.err
	}
	return n, nil
}

func TestReadRange(t *testing.T) {
	failure := errors.New("bad address")

	bs, err := readRange(memReader{data: []byte("abc"), err: io.EOF}, 0x1000, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), bs)

	bs, err = readRange(memReader{data: []byte("abcdefgh")}, 0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), bs)

	_, err = readRange(memReader{err: failure}, 0x1000, 8)
	assert.Equal(t, failure, err)

	bs, err = readRange(memReader{err: failure}, 0x1000, 0)
	require.NoError(t, err)
	assert.Empty(t, bs)
}

func TestFilterPaths(t *testing.T) {
	ranges := []prowler.MemoryRegion{
		{Start: 0x1000, Path: "/usr/lib/libc.so.6"},
		{Start: 0x2000, Path: "/usr/bin/target"},
		{Start: 0x3000, Path: "[heap]"},
		{Start: 0x4000},
	}

	assert.Equal(t, ranges, filterPaths(ranges, nil, nil))

	got := filterPaths(ranges, []string{"/usr/"}, nil)
	require.Len(t, got, 2)

	got = filterPaths(ranges, []string{"/usr/"}, []string{".so.6"})
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0x1000), got[0].Start)

	got = filterPaths(ranges, nil, []string{"]"})
	require.Len(t, got, 1)
	assert.Equal(t, "[heap]", got[0].Path)
}

func saveDump(t *testing.T) string {
	t.Helper()

	blocks := []dump.Block{
		{
			Range: prowler.MemoryRegion{Start: 0x1000, End: 0x1010, Perms: "rw-p", Path: "[heap]"},
			Data:  []byte("0123456789abcdef"),
		},
		{
			Range: prowler.MemoryRegion{Start: 0x8000, End: 0x8004, Perms: "r-xp", Path: "/bin/true"},
			Data:  []byte{0xde, 0xad, 0xbe, 0xef},
		},
	}

	info, err := dump.Save(blocks, t.TempDir())
	require.NoError(t, err)
	return info
}

func TestLocalArgsCheck(t *testing.T) {
	info := saveDump(t)

	assert.NoError(t, localArgsCheck(cli.Args{info}))
	assert.NoError(t, localArgsCheck(cli.Args{info, "0x1000", "16"}))
	assert.Error(t, localArgsCheck(cli.Args{info, "0x1000"}))
	assert.Error(t, localArgsCheck(cli.Args{info, "0xzz", "16"}))
	assert.Error(t, localArgsCheck(cli.Args{filepath.Join(t.TempDir(), "missing.json")}))
}

func TestLocalCommand(t *testing.T) {
	info := saveDump(t)
	out := filepath.Join(t.TempDir(), "out.bin")

	require.NoError(t, newTestApp().Run([]string{"memdump", "local", "--out", out, info, "0x1004", "8"}))
	bs, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("456789ab"), bs)

	// reads stop at the end of a saved range
	require.NoError(t, newTestApp().Run([]string{"memdump", "local", "--out", out, info, "0x8002", "16"}))
	bs, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbe, 0xef}, bs)

	err = newTestApp().Run([]string{"memdump", "local", "--out", out, info, "0x5000", "4"})
	assert.Error(t, err)

	assert.NoError(t, newTestApp().Run([]string{"memdump", "local", "--perms", "r-x", info}))
	assert.Error(t, newTestApp().Run([]string{"memdump", "local", info, "0x1000"}))
}
