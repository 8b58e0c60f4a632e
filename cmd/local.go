package cmd

import (
	"fmt"
	"memdump/utils"
	"os"

	"github.com/urfave/cli"
)

var local = cli.Command{
	Name:      "local",
	Usage:     "list or read the ranges of a saved dump",
	ArgsUsage: "<info.json> [<addr> <size>]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "perms",
			Usage: "permission filter used when listing",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "write the raw bytes to a file instead of printing a hexdump",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 1, utils.MinArgs, localArgsCheck); err != nil {
			return err
		}

		return exec(Local, 0, context)
	},
}

func localArgsCheck(args cli.Args) error {
	if _, err := os.Stat(args.First()); err != nil {
		return err
	}

	switch len(args) {
	case 1:
		return nil
	case 3:
		_, err := rArgs(args)
		return err
	default:
		return fmt.Errorf("expected an info file, optionally followed by <addr> <size>")
	}
}
