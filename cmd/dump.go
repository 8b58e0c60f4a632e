package cmd

import (
	"fmt"
	"memdump/utils"
	"os"
	"strconv"

	"github.com/urfave/cli"
)

var dumpCmd = cli.Command{
	Name:      "dump",
	Usage:     "dump every matching range of a process into a timestamped directory",
	ArgsUsage: "<pid> <dir>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "perms",
			Usage: "permission filter, '-' matches anything (default from config, r--)",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 2, utils.ExactArgs, dumpArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Dump, pid, context)
	},
}

func dumpArgsCheck(args cli.Args) error {
	if err := pidArgsCheck(args); err != nil {
		return err
	}

	dir := args.Get(1)
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return nil
}
