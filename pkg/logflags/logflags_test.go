package logflags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	enabled, http, grpc, dump, reader = false, false, false, false, false
}

func TestSetupComponents(t *testing.T) {
	defer reset()

	require.NoError(t, Setup(true, "http, dump", DefaultLogDesc))
	assert.True(t, Any())
	assert.True(t, http)
	assert.True(t, dump)
	assert.False(t, grpc)
}

func TestSetupDisabled(t *testing.T) {
	defer reset()

	require.NoError(t, Setup(false, "grpc", DefaultLogDesc))
	assert.False(t, Any())
	assert.False(t, grpc)
}

func TestSetupUnknownComponent(t *testing.T) {
	defer reset()

	assert.Error(t, Setup(true, "http,bogus", DefaultLogDesc))
}

func TestSetupFileDest(t *testing.T) {
	defer reset()
	prevOut, prevColored := logOut, colored
	defer func() { logOut, colored = prevOut, prevColored }()

	dest := filepath.Join(t.TempDir(), "memdump.log")
	require.NoError(t, Setup(true, "grpc", dest))

	logger := GRPCLogger()
	logger.Infof("listening on %s", "127.0.0.1:0")
	require.NoError(t, logger.Sync())
	require.NoError(t, Close())

	bs, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "listening on 127.0.0.1:0")
	assert.Contains(t, string(bs), "INFO")
	assert.Contains(t, string(bs), "grpc")
}

func TestCloseKeepsStandardStreams(t *testing.T) {
	defer reset()
	prevOut, prevColored := logOut, colored
	defer func() { logOut, colored = prevOut, prevColored }()

	for _, dest := range []string{"1", "2"} {
		require.NoError(t, Setup(false, "", dest))
		require.NoError(t, Close())
	}

	_, err := os.Stdout.Stat()
	assert.NoError(t, err)
	_, err = os.Stderr.Stat()
	assert.NoError(t, err)

	assert.Error(t, Setup(false, "", "0"))
}

func TestWarningsLoggedWhenDisabled(t *testing.T) {
	defer reset()
	prevOut, prevColored := logOut, colored
	defer func() { logOut, colored = prevOut, prevColored }()

	dest := filepath.Join(t.TempDir(), "memdump.log")
	require.NoError(t, Setup(false, "", dest))

	logger := DumpLogger()
	logger.Debugf("reading %s", "[heap]")
	logger.Warnf("failed to read the memory %x", 0x1000)
	require.NoError(t, logger.Sync())
	require.NoError(t, Close())

	bs, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "failed to read the memory 1000")
	assert.NotContains(t, string(bs), "reading [heap]")
}
