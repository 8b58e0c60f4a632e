package cmd

import (
	"memdump/utils"
	"strconv"

	"github.com/urfave/cli"
)

var read = cli.Command{
	Name:      "read",
	Usage:     "read a memory range of a process",
	ArgsUsage: "<pid> <addr> <size>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "write the raw bytes to a file instead of printing a hexdump",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 3, utils.ExactArgs, readArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Read, pid, context)
	},
}

type readArgs struct {
	addr uint64
	size int
}

// rArgs parses the address and size following the first argument.
func rArgs(args cli.Args) (*readArgs, error) {
	addr, err := utils.ParseAddr(args.Get(1))
	if err != nil {
		return nil, err
	}
	size, err := utils.ParseSize(args.Get(2))
	if err != nil {
		return nil, err
	}

	return &readArgs{
		addr: addr,
		size: size,
	}, nil
}

func readArgsCheck(args cli.Args) error {
	if err := utils.CheckPid(args.First()); err != nil {
		return err
	}

	_, err := rArgs(args)
	return err
}
