package utils

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ProcRoot is where process mappings are looked up.
var ProcRoot = "/proc"

// CheckPid reports why pid cannot be read from: it is not a pid, the process
// is gone, or its mappings are not readable by us.
func CheckPid(pid string) error {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid pid %q", pid)
	}

	f, err := os.Open(filepath.Join(ProcRoot, pid, "maps"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("pid %s does not exist", pid)
		}
		return fmt.Errorf("pid %s: %w", pid, err)
	}
	return f.Close()
}

// Reachable dials addr once to check a server is listening there.
func Reachable(addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("invalid connection address %s: %w", addr, err)
	}
	return conn.Close()
}
