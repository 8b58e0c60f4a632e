package cmd

import (
	"memdump/utils"
	"strconv"

	"github.com/urfave/cli"
)

var ranges = cli.Command{
	Name:      "ranges",
	Aliases:   []string{"ls"},
	Usage:     "list the mapped ranges of a process",
	ArgsUsage: "<pid>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "perms",
			Usage: "permission filter, '-' matches anything (default from config, r--)",
		},
		cli.StringSliceFlag{
			Name:  "prefixes, p",
			Usage: "path prefix filtering",
		},
		cli.StringSliceFlag{
			Name:  "suffixes, s",
			Usage: "path suffix filtering",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 1, utils.ExactArgs, pidArgsCheck); err != nil {
			return err
		}

		pid, err := strconv.Atoi(context.Args().First())
		if err != nil {
			return err
		}

		return exec(Ranges, pid, context)
	},
}

func pidArgsCheck(args cli.Args) error {
	return utils.CheckPid(args.First())
}
