package terminal

import (
	"errors"
	"fmt"
	"memdump/pkg/config"
	"memdump/pkg/frame"
	"memdump/pkg/native"
	"memdump/pkg/prowler"
	"memdump/service"
	"memdump/utils"
	"strings"
	"text/tabwriter"

	"github.com/google/shlex"
)

var (
	argumentsErr = "invalid number of arguments, expected %d, actual %d"
)

type cmdFn func(term *Term, args []string) error

type command struct {
	aliases []string
	fn      cmdFn
	help    string
}

func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

type Commands struct {
	cmds   []command
	client service.Client
	info   *service.ServerInfo
	codec  native.Codec
}

func NewCommands(client service.Client) *Commands {
	c := &Commands{
		client: client,
	}

	c.cmds = []command{
		{
			aliases: []string{"help", "h"},
			fn:      c.help,
			help: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{
			aliases: []string{"read", "r"},
			fn:      c.read,
			help: `Reads target memory and prints it as a hexdump.

	read <addr> <size>

addr is hex with a 0x prefix or decimal. Sizes larger than the server's slot
are read in slot-sized chunks.`,
		},
		{
			aliases: []string{"ranges", "ls"},
			fn:      c.ranges,
			help: `Lists the mapped ranges of the target.

	ranges [perms]

perms filters by permission, '-' matching anything. Defaults to r--.`,
		},
		{
			aliases: []string{"info", "i"},
			fn:      c.serverInfo,
			help:    "Prints the target pid and how the server encodes its frames.",
		},
		{
			aliases: []string{"transcript"},
			fn:      transcript,
			help: `Appends command output to a file.

	transcript [-t] [-x] <output file>
	transcript -off

-t	truncate the output file
-x	write only to the output file
-off	stop writing the transcript`,
		},
		{
			aliases: []string{"exit", "quit", "q"},
			fn:      exit,
			help:    "Exits the terminal, leaving the target untouched.",
		},
	}
	return c
}

// Find looks up the command for cmdstr, falling back to noCmdAvailable.
func (c *Commands) Find(cmdstr string) command {
	if cmdstr == "" {
		return command{aliases: []string{"nullcmd"}, fn: nullCommand}
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v
		}
	}

	return command{aliases: []string{"nocmd"}, fn: noCmdAvailable}
}

func (c *Commands) Call(cmdStr string, t *Term) error {
	args, err := shlex.Split(cmdStr)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	return c.Find(strings.ToLower(args[0])).fn(t, args[1:])
}

func (c *Commands) help(t *Term, args []string) error {
	if len(args) > 0 {
		cmd := c.Find(args[0])
		if cmd.help == "" {
			return errNoCmd
		}
		_, err := fmt.Fprintln(t.stdout, cmd.help)
		return err
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.help
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

// decoder fetches the server info once and resolves its codec.
func (c *Commands) decoder() (*service.ServerInfo, native.Codec, error) {
	if c.info != nil {
		return c.info, c.codec, nil
	}

	info, err := c.client.Info()
	if err != nil {
		return nil, nil, err
	}
	codec, ok := native.Lookup(info.Codec)
	if !ok {
		return nil, nil, fmt.Errorf("server uses unknown codec %q", info.Codec)
	}

	c.info, c.codec = info, codec
	return info, codec, nil
}

func (c *Commands) read(t *Term, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf(argumentsErr, 2, len(args))
	}

	addr, err := utils.ParseAddr(args[0])
	if err != nil {
		return err
	}
	size, err := utils.ParseSize(args[1])
	if err != nil {
		return err
	}

	info, codec, err := c.decoder()
	if err != nil {
		return err
	}

	out := make([]byte, 0, size)
	for _, chunk := range prowler.Split(addr, size, info.SlotSize) {
		b, err := c.client.ReadMemory(chunk.Base, chunk.Size)
		if err != nil {
			utils.PrintBytes(t.stdout, addr, out, t.color)
			return err
		}

		bs, err := frame.Decode(codec, b, info.SlotSize)
		if err != nil {
			return err
		}
		out = append(out, bs...)
		if len(bs) < chunk.Size {
			break
		}
	}

	if len(out) < size {
		fmt.Fprintf(t.stdout, "short read: %d of %d bytes\n", len(out), size)
	}
	utils.PrintBytes(t.stdout, addr, out, t.color)
	return nil
}

func (c *Commands) ranges(t *Term, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf(argumentsErr, 1, len(args))
	}

	perms := config.DefaultPerms
	if len(args) == 1 {
		perms = args[0]
	}

	ranges, err := c.client.Ranges(perms)
	if err != nil {
		return err
	}

	utils.PrintRanges(t.stdout, ranges)
	return nil
}

func (c *Commands) serverInfo(t *Term, args []string) error {
	info, _, err := c.decoder()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(t.stdout, "pid: %d\ncodec: %s\nslot size: %d\nslots: %d\n",
		info.Pid, info.Codec, info.SlotSize, info.Slots)
	return err
}

func transcript(t *Term, args []string) error {
	truncate, fileOnly := false, false
	var path string
	for _, arg := range args {
		switch arg {
		case "-off":
			return t.stdout.CloseTranscript()
		case "-t":
			truncate = true
		case "-x":
			fileOnly = true
		default:
			if path != "" {
				return fmt.Errorf("too many arguments")
			}
			path = arg
		}
	}

	if path == "" {
		return fmt.Errorf("not enough arguments")
	}

	return t.stdout.OpenTranscript(path, truncate, fileOnly)
}

type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exit(t *Term, args []string) error {
	return ExitRequestError{}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, args []string) error {
	return errNoCmd
}

func nullCommand(t *Term, args []string) error {
	return nil
}
