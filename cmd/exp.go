package cmd

import (
	"memdump/pkg/config"
	"memdump/pkg/logflags"

	"github.com/urfave/cli"
)

const (
	usage = `memdump copies memory ranges out of a running process, compressing them
             on the way, and dumps, lists or serves them`
)

func NewExp() *cli.App {
	app := cli.NewApp()
	app.Name = "memdump"
	app.Usage = usage
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML file with the pipeline settings",
		},
		cli.IntFlag{
			Name:  "slot-size",
			Value: config.DefaultSlotSize,
			Usage: "bytes a single read may cover",
		},
		cli.IntFlag{
			Name:  "max-concurrency",
			Value: config.DefaultMaxConcurrency,
			Usage: "number of slots, i.e. reads in flight",
		},
		cli.StringFlag{
			Name:  "codec",
			Usage: "compression codec: lz4, zstd or none",
		},
		cli.IntFlag{
			Name:  "acceleration",
			Value: 1,
			Usage: "values above 1 trade ratio for speed",
		},
		cli.Uint64Flag{
			Name:  "max-range",
			Value: config.DefaultMaxRangeSize,
			Usage: "mappings larger than this are skipped by dump",
		},
		cli.BoolFlag{
			Name:  "log",
			Usage: "enable debug logging",
		},
		cli.StringFlag{
			Name:  "log-output",
			Usage: "comma separated components to debug: http, grpc, dump, reader",
		},
		cli.StringFlag{
			Name:  "log-dest",
			Usage: "log file path or file descriptor",
			Value: logflags.DefaultLogDesc,
		},
	}
	app.Commands = []cli.Command{
		read,
		ranges,
		dumpCmd,
		local,
		attach,
		conn,
	}

	return app
}

// loadConfig layers the global flags the user set over the config file.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet("slot-size") {
		cfg.SlotSize = ctx.GlobalInt("slot-size")
	}
	if ctx.GlobalIsSet("max-concurrency") {
		cfg.MaxConcurrency = ctx.GlobalInt("max-concurrency")
	}
	if ctx.GlobalIsSet("codec") {
		cfg.Codec = ctx.GlobalString("codec")
	}
	if ctx.GlobalIsSet("acceleration") {
		cfg.Acceleration = ctx.GlobalInt("acceleration")
	}
	if ctx.GlobalIsSet("max-range") {
		cfg.MaxRangeSize = ctx.GlobalUint64("max-range")
	}
	if ctx.GlobalIsSet("log") {
		cfg.Log = ctx.GlobalBool("log")
	}
	if ctx.GlobalIsSet("log-output") {
		cfg.LogOutput = ctx.GlobalString("log-output")
	}
	if ctx.GlobalIsSet("log-dest") {
		cfg.LogDest = ctx.GlobalString("log-dest")
	}

	return cfg, cfg.Validate()
}
