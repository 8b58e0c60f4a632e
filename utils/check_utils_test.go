package utils

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPid(t *testing.T) {
	prev := ProcRoot
	defer func() { ProcRoot = prev }()

	ProcRoot = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ProcRoot, "42"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ProcRoot, "42", "maps"), nil, 0644))

	assert.NoError(t, CheckPid("42"))
	assert.EqualError(t, CheckPid("43"), "pid 43 does not exist")
	assert.EqualError(t, CheckPid("abc"), `invalid pid "abc"`)
	assert.Error(t, CheckPid("-1"))
}

func TestReachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	assert.NoError(t, Reachable(addr, time.Second))

	require.NoError(t, l.Close())
	assert.Error(t, Reachable(addr, time.Second))
}
