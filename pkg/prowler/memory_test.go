package prowler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `55d4c2a00000-55d4c2a02000 r--p 00000000 fd:01 1311 /usr/bin/cat
55d4c2a02000-55d4c2a07000 r-xp 00002000 fd:01 1311 /usr/bin/cat
55d4c3d5e000-55d4c3d7f000 rw-p 00000000 00:00 0 [heap]
7f1e5c000000-7f1e5c021000 rw-p 00000000 00:00 0
7ffd1b5e0000-7ffd1b5e4000 r--p 00000000 00:00 0 [vvar]
ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0 [vsyscall]
7f1e5d000000-7f1e5d001000 r--p 00000000 fd:01 42 /tmp/dir with space/lib.so
`

func TestParseProcMaps(t *testing.T) {
	regions, err := parseProcMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, regions, 7)

	assert.Equal(t, MemoryRegion{
		Start:  0x55d4c2a02000,
		End:    0x55d4c2a07000,
		Perms:  "r-xp",
		Offset: 0x2000,
		Device: "fd:01",
		Inode:  1311,
		Path:   "/usr/bin/cat",
	}, regions[1])
	assert.Equal(t, uint64(0x21000), regions[2].Size())
	assert.Equal(t, "", regions[3].Path)
	assert.Equal(t, "/tmp/dir with space/lib.so", regions[6].Path)
}

func TestParseProcMapsMalformed(t *testing.T) {
	_, err := parseProcMaps(strings.NewReader("nonsense r--p 0 00:00 0\n"))
	assert.Error(t, err)
}

func TestMatchPerms(t *testing.T) {
	assert.True(t, MatchPerms("rw-p", "r--"))
	assert.True(t, MatchPerms("r-xp", "r--"))
	assert.True(t, MatchPerms("rw-p", "rw-"))
	assert.False(t, MatchPerms("r--p", "rw-"))
	assert.False(t, MatchPerms("--xp", "r--"))
	assert.True(t, MatchPerms("--xp", ""))
	assert.False(t, MatchPerms("r", "r-x"))
}

func TestRanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "77"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "77", "maps"), []byte(sampleMaps), 0644))

	p := &Prowler{pid: 77, procRoot: root}

	writable, err := p.Ranges("rw-")
	require.NoError(t, err)
	require.Len(t, writable, 2)
	assert.Equal(t, "[heap]", writable[0].Path)

	readable, err := p.Ranges("r--")
	require.NoError(t, err)
	assert.Len(t, readable, 6)

	_, err = (&Prowler{pid: 78, procRoot: root}).Ranges("")
	assert.Error(t, err)
}
