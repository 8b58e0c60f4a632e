package logflags

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// DefaultLogDesc sends logs to stderr.
const DefaultLogDesc = ""

var (
	enabled bool
	http    bool
	grpc    bool
	dump    bool
	reader  bool

	logOut  io.WriteCloser = nopCloser{colorable.NewColorableStderr()}
	colored                = isatty.IsTerminal(os.Stderr.Fd())
)

// Logger is the subset of *zap.SugaredLogger the servers and commands use.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Sync() error
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Setup enables debug logging for the components listed in logStr
// (comma separated: http, grpc, dump, reader) when flag is set, and directs
// all log output to logDest. logDest is a file path, a file descriptor
// number or empty for stderr.
func Setup(flag bool, logStr, logDest string) error {
	if logDest != "" {
		out, tty, err := openDest(logDest)
		if err != nil {
			return err
		}
		logOut, colored = out, tty
	}

	if !flag {
		return nil
	}

	enabled = true
	if logStr == "" {
		logStr = "http"
	}
	for _, c := range strings.Split(logStr, ",") {
		switch strings.TrimSpace(c) {
		case "http":
			http = true
		case "grpc":
			grpc = true
		case "dump":
			dump = true
		case "reader":
			reader = true
		default:
			return fmt.Errorf("unknown log output %q", c)
		}
	}

	return nil
}

func openDest(logDest string) (io.WriteCloser, bool, error) {
	if fd, err := strconv.Atoi(logDest); err == nil {
		// the standard streams outlive the logger
		switch fd {
		case 1:
			return nopCloser{colorable.NewColorableStdout()}, isatty.IsTerminal(os.Stdout.Fd()), nil
		case 2:
			return nopCloser{colorable.NewColorableStderr()}, isatty.IsTerminal(os.Stderr.Fd()), nil
		}
		if fd < 3 {
			return nil, false, fmt.Errorf("invalid log file descriptor %d", fd)
		}

		f := os.NewFile(uintptr(fd), "log")
		if f == nil {
			return nil, false, fmt.Errorf("invalid log file descriptor %d", fd)
		}
		return f, isatty.IsTerminal(f.Fd()), nil
	}

	f, err := os.OpenFile(logDest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("could not create log file: %v", err)
	}
	return f, false, nil
}

// Any reports whether any component has debug logging enabled.
func Any() bool { return enabled }

// Close closes the log destination if Setup opened one.
func Close() error {
	return logOut.Close()
}
