package cmd

import (
	"context"
	"fmt"
	"memdump/pkg/config"
	"memdump/pkg/dump"
	"memdump/pkg/logflags"
	"memdump/pkg/native"
	"memdump/pkg/pool"
	"memdump/pkg/proc"
	"memdump/pkg/prowler"
	"memdump/pkg/terminal"
	"memdump/service"
	"memdump/service/grpc"
	"memdump/service/http"
	"memdump/utils"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"
)

type ExecType int

const (
	Read ExecType = iota
	Ranges
	Dump
	Local
	Attach
	Conn
)

const (
	defaultAddr = "127.0.0.1:0"
)

type executor struct {
	et      ExecType
	pid     int
	ctx     *cli.Context
	cfg     *config.Config
	prowler *prowler.Prowler
}

// newExecutor loads the configuration and, for commands that touch a live
// process, binds the native routines and allocates the slot pool. A binding
// failure ends the command.
func newExecutor(et ExecType, pid int, ctx *cli.Context) (*executor, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := logflags.Setup(cfg.Log, cfg.LogOutput, cfg.LogDest); err != nil {
		return nil, err
	}

	ex := &executor{
		et:  et,
		pid: pid,
		ctx: ctx,
		cfg: cfg,
	}
	if et == Local || et == Conn {
		return ex, nil
	}

	caps, err := native.NewBinder(native.WithCodec(cfg.Codec)).Initialize()
	if err != nil {
		return nil, err
	}
	sp, err := pool.New(cfg.SlotSize, cfg.MaxConcurrency, caps.CompressBound)
	if err != nil {
		return nil, err
	}
	ex.prowler, err = prowler.NewProwler(pid, caps, sp, prowler.WithAcceleration(cfg.Acceleration))
	if err != nil {
		return nil, err
	}

	return ex, nil
}

func (e *executor) run() error {
	switch e.et {
	case Read:
		return e.read()
	case Ranges:
		return e.ranges()
	case Dump:
		return e.dump()
	case Local:
		return e.local()
	case Attach:
		return e.attach()
	case Conn:
		args := e.ctx.Args()
		return e.connect(args.First())
	}

	return nil
}

func exec(et ExecType, pid int, ctx *cli.Context) error {
	ex, err := newExecutor(et, pid, ctx)
	if err != nil {
		return err
	}
	defer logflags.Close()

	return ex.run()
}

func (e *executor) read() error {
	r, err := rArgs(e.ctx.Args())
	if err != nil {
		return err
	}

	logger := logflags.ReaderLogger()
	logger.Debugf("reading %d bytes at %#x from pid %d", r.size, r.addr, e.pid)

	bs, err := readRange(e.prowler, r.addr, r.size)
	if err != nil {
		return err
	}
	if len(bs) < r.size {
		logger.Warnf("short read, %d of %d bytes", len(bs), r.size)
	}

	return output(e.ctx.String("out"), r.addr, bs)
}

func (e *executor) ranges() error {
	perms := e.ctx.String("perms")
	if perms == "" {
		perms = e.cfg.Perms
	}

	ranges, err := e.prowler.Ranges(perms)
	if err != nil {
		return err
	}

	w, _ := utils.Stdout()
	utils.PrintRanges(w, filterPaths(ranges, e.ctx.StringSlice("prefixes"), e.ctx.StringSlice("suffixes")))
	return nil
}

func (e *executor) dump() error {
	perms := e.ctx.String("perms")
	if perms == "" {
		perms = e.cfg.Perms
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logflags.DumpLogger()
	blocks, err := dump.NewDumper(e.prowler, logger, dump.WithMaxRange(e.cfg.MaxRangeSize)).Dump(ctx, perms)
	if err != nil {
		return err
	}

	info, err := dump.Save(blocks, e.ctx.Args().Get(1))
	if err != nil {
		return err
	}

	var total int
	for _, b := range blocks {
		total += len(b.Data)
	}
	fmt.Printf("dumped %d ranges, %d bytes: %s\n", len(blocks), total, info)
	return nil
}

func (e *executor) local() error {
	args := e.ctx.Args()
	l, err := dump.Load(args.First())
	if err != nil {
		return err
	}
	defer l.Close()

	if len(args) == 1 {
		perms := e.ctx.String("perms")
		if perms == "" {
			perms = e.cfg.Perms
		}
		w, _ := utils.Stdout()
		utils.PrintRanges(w, l.Ranges(perms))
		return nil
	}

	r, err := rArgs(args)
	if err != nil {
		return err
	}

	bs, err := readRange(l, r.addr, r.size)
	if err != nil {
		return err
	}

	return output(e.ctx.String("out"), r.addr, bs)
}

func (e *executor) attach() error {
	var server service.Server
	ctx := e.ctx

	listener, err := net.Listen("tcp", ctx.String("listen"))
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}

	srv := ctx.String("srv")
	switch srv {
	case "grpc":
		server = grpc.NewServer(listener, e.prowler)
	case "http":
		server = http.NewServer(listener, e.prowler)
	default:
		listener.Close()
		return fmt.Errorf("unknown server type %q", srv)
	}

	defer server.Stop()
	if err := server.Run(); err != nil {
		return err
	}

	if ctx.Bool("headless") {
		fmt.Printf("serving pid %d over %s at %s\n", e.pid, srv, server.Addr())

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		return nil
	}

	return e.connect(server.Addr().String())
}

func (e *executor) connect(addr string) (err error) {
	var client service.Client
	srv := e.ctx.String("srv")
	switch srv {
	case "grpc":
		client, err = grpc.NewClient(addr)
	case "http":
		client, err = http.NewClient(addr)
	default:
		return fmt.Errorf("unknown server type %q", srv)
	}
	if err != nil {
		return
	}
	defer client.Close()

	term := terminal.New(client)
	return term.Run()
}

// readRange reads size bytes at addr. A short read is not an error as long as
// some bytes came back.
func readRange(r proc.MemoryReader, addr uint64, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := r.ReadMemory(buf, addr)
	if err != nil && n == 0 && size > 0 {
		return nil, err
	}
	return buf[:n], nil
}

// output writes bs raw to path, or as a hexdump to stdout when path is empty.
func output(path string, base uint64, bs []byte) error {
	if path != "" {
		return os.WriteFile(path, bs, 0644)
	}

	w, color := utils.Stdout()
	utils.PrintBytes(w, base, bs, color)
	return nil
}

func filterPaths(ranges []prowler.MemoryRegion, prefixes, suffixes []string) []prowler.MemoryRegion {
	if len(prefixes) == 0 && len(suffixes) == 0 {
		return ranges
	}

	var out []prowler.MemoryRegion
	for _, r := range ranges {
		if len(prefixes) > 0 && !utils.PrefixIn(r.Path, prefixes) {
			continue
		}
		if len(suffixes) > 0 && !utils.SuffixIn(strings.TrimSpace(r.Path), suffixes) {
			continue
		}
		out = append(out, r)
	}
	return out
}
