package prowler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type MemoryRegion struct {
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Perms  string `json:"perms"`
	Offset uint64 `json:"offset"`
	Device string `json:"device"`
	Inode  uint64 `json:"inode"`
	Path   string `json:"path,omitempty"`
}

func (r MemoryRegion) Size() uint64 {
	return r.End - r.Start
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("%016x-%016x %s %8x %s", r.Start, r.End, r.Perms, r.Size(), r.Path)
}

// 解析 /proc/[pid]/maps
func parseProcMaps(rd io.Reader) ([]MemoryRegion, error) {
	var regions []MemoryRegion

	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		// 解析地址范围
		start, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			return nil, fmt.Errorf("malformed maps address range %q", fields[0])
		}

		region := MemoryRegion{
			Start:  parseHex(start),
			End:    parseHex(end),
			Perms:  fields[1],
			Offset: parseHex(fields[2]),
			Device: fields[3],
			Inode:  parseDec(fields[4]),
		}
		if len(fields) > 5 {
			region.Path = strings.Join(fields[5:], " ")
		}
		regions = append(regions, region)
	}

	return regions, sc.Err()
}

// MatchPerms reports whether perms grants everything filter asks for. A '-'
// in filter leaves that position unchecked, so "r--" matches "rw-p".
func MatchPerms(perms, filter string) bool {
	for i := 0; i < len(filter); i++ {
		if filter[i] == '-' {
			continue
		}
		if i >= len(perms) || perms[i] != filter[i] {
			return false
		}
	}
	return true
}

// Ranges lists the target's mappings whose protection matches perms.
func (p *Prowler) Ranges(perms string) ([]MemoryRegion, error) {
	f, err := os.Open(filepath.Join(p.procRoot, strconv.Itoa(p.pid), "maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	regions, err := parseProcMaps(f)
	if err != nil {
		return nil, err
	}

	matched := regions[:0]
	for _, r := range regions {
		if MatchPerms(r.Perms, perms) {
			matched = append(matched, r)
		}
	}

	return matched, nil
}

func parseHex(s string) uint64 {
	if s == "0" {
		return 0
	}
	val, _ := strconv.ParseUint(s, 16, 64)
	return val
}

func parseDec(s string) uint64 {
	val, _ := strconv.ParseUint(s, 10, 64)
	return val
}
