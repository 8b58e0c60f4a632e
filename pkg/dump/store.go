package dump

import (
	"encoding/json"
	"fmt"
	"io"
	e "memdump/error"
	"memdump/pkg/prowler"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	InfoFile   = "info.json"
	dirLayout  = "02-01-15-04-05"
	dumpSuffix = ".dump"
)

type FileInfo struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Device string `json:"device"`
	Inode  uint64 `json:"inode"`
}

// Entry is one record of the info file.
type Entry struct {
	Base       uint64   `json:"base"`
	Size       uint64   `json:"size"`
	Protection string   `json:"protection"`
	File       FileInfo `json:"file"`
	Dump       string   `json:"filepath_dump"`
}

func (en Entry) Range() prowler.MemoryRegion {
	return prowler.MemoryRegion{
		Start:  en.Base,
		End:    en.Base + en.Size,
		Perms:  en.Protection,
		Offset: en.File.Offset,
		Device: en.File.Device,
		Inode:  en.File.Inode,
		Path:   en.File.Path,
	}
}

// Save writes each block to <dir>/<timestamp>/<base>-<size>.dump next to an
// info file indexing them, and returns the info file path.
func Save(blocks []Block, dir string) (string, error) {
	return saveAt(blocks, dir, time.Now())
}

func saveAt(blocks []Block, dir string, now time.Time) (string, error) {
	out := filepath.Join(dir, now.Format(dirLayout))
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", err
	}

	info := make([]Entry, 0, len(blocks))
	for _, b := range blocks {
		name := fmt.Sprintf("%x-%x%s", b.Range.Start, b.Range.Size(), dumpSuffix)
		if err := os.WriteFile(filepath.Join(out, name), b.Data, 0644); err != nil {
			return "", err
		}

		info = append(info, Entry{
			Base:       b.Range.Start,
			Size:       uint64(len(b.Data)),
			Protection: b.Range.Perms,
			File: FileInfo{
				Path:   b.Range.Path,
				Offset: b.Range.Offset,
				Device: b.Range.Device,
				Inode:  b.Range.Inode,
			},
			Dump: name,
		})
	}

	bs, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}

	infoPath := filepath.Join(out, InfoFile)
	if err := os.WriteFile(infoPath, bs, 0644); err != nil {
		return "", err
	}

	return infoPath, nil
}

// Load reads an info file. Dump files are opened on first access.
func Load(infoPath string) (*Local, error) {
	bs, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", infoPath, err)
	}

	dir := filepath.Dir(infoPath)
	l := &Local{}
	for _, en := range entries {
		path := en.Dump
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		l.blocks = append(l.blocks, &lazyDump{entry: en, path: path})
	}
	sort.Slice(l.blocks, func(i, j int) bool {
		return l.blocks[i].entry.Base < l.blocks[j].entry.Base
	})

	return l, nil
}

// Local replays a saved dump. It implements proc.MemoryReader.
type Local struct {
	blocks []*lazyDump
}

type lazyDump struct {
	entry Entry
	path  string

	once sync.Once
	f    *os.File
	err  error
}

func (d *lazyDump) open() (*os.File, error) {
	d.once.Do(func() {
		d.f, d.err = os.Open(d.path)
	})
	return d.f, d.err
}

func (d *lazyDump) contains(addr uint64) bool {
	return addr >= d.entry.Base && addr < d.entry.Base+d.entry.Size
}

// ReadMemory reads from the block holding addr. Reads do not continue into
// the next block; running past the end of one returns io.EOF.
func (l *Local) ReadMemory(buf []byte, addr uint64) (int, error) {
	for _, d := range l.blocks {
		if !d.contains(addr) {
			continue
		}

		f, err := d.open()
		if err != nil {
			return 0, err
		}
		return f.ReadAt(buf, int64(addr-d.entry.Base))
	}

	return 0, fmt.Errorf("%w: %#x", e.AddressNotMapped, addr)
}

// Ranges lists the saved mappings whose protection matches perms.
func (l *Local) Ranges(perms string) []prowler.MemoryRegion {
	var regions []prowler.MemoryRegion
	for _, d := range l.blocks {
		if prowler.MatchPerms(d.entry.Protection, perms) {
			regions = append(regions, d.entry.Range())
		}
	}
	return regions
}

func (l *Local) Close() error {
	var first error
	for _, d := range l.blocks {
		if d.f != nil {
			if err := d.f.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

var _ io.Closer = (*Local)(nil)
