package cmd

import (
	"memdump/utils"
	"strconv"

	"github.com/urfave/cli"
)

var attach = cli.Command{
	Name:      "attach",
	Usage:     "serve reads of a process and open a terminal on them",
	ArgsUsage: "<pid>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "srv",
			Usage: "server type: http or grpc",
			Value: "http",
		},
		cli.StringFlag{
			Name:  "listen, l",
			Usage: "address to serve on",
			Value: defaultAddr,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "only serve, without a terminal, until interrupted",
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
		return exec(Attach, pid, context)
	},
}
