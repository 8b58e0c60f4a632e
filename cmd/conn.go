package cmd

import (
	"memdump/utils"
	"time"

	"github.com/urfave/cli"
)

var conn = cli.Command{
	Name:      "conn",
	Usage:     "open a terminal on a running server",
	ArgsUsage: "<addr>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "srv",
			Usage: "server type: http or grpc",
			Value: "http",
		},
	},
	Action: func(context *cli.Context) error {
		if err := utils.CheckArgs(context, 1, utils.ExactArgs, connArgsCheck); err != nil {
			return err
		}

		return exec(Conn, 0, context)
	},
}

func connArgsCheck(args cli.Args) error {
	return utils.Reachable(args.First(), 5*time.Second)
}
