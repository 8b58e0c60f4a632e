package utils

import (
	"fmt"
	"io"
	"memdump/pkg/prowler"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	dimEscape   = "\033[2m"
	resetEscape = "\033[0m"
)

// Stdout is a colour capable stdout; Colored reports whether it is a
// terminal.
func Stdout() (io.Writer, bool) {
	return colorable.NewColorableStdout(), isatty.IsTerminal(os.Stdout.Fd())
}

func PrintRanges(w io.Writer, ranges []prowler.MemoryRegion) {
	for _, r := range ranges {
		fmt.Fprintln(w, r.String())
	}
}

// PrintBytes writes a canonical hexdump of bs labelled with addresses
// starting at base. Zero bytes are dimmed when color is set.
func PrintBytes(w io.Writer, base uint64, bs []byte, color bool) {
	for off := 0; off < len(bs); off += 16 {
		line := bs[off:min(off+16, len(bs))]

		fmt.Fprintf(w, "%016x: ", base+uint64(off))
		for i := 0; i < 16; i++ {
			if i == 8 {
				fmt.Fprint(w, " ")
			}
			if i >= len(line) {
				fmt.Fprint(w, "   ")
				continue
			}
			if color && line[i] == 0 {
				fmt.Fprintf(w, "%s%02x%s ", dimEscape, line[i], resetEscape)
			} else {
				fmt.Fprintf(w, "%02x ", line[i])
			}
		}

		fmt.Fprint(w, " ")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			fmt.Fprintf(w, "%c", c)
		}
		fmt.Fprintln(w)
	}
}
