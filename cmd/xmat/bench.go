package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/signalarray/xmat/internal/bench"
	"github.com/signalarray/xmat/internal/logger"
	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

type benchRunner func(context.Context, *xnet.Connection, bench.Config, logger.Logger) (*bench.Result, error)

func benchCmd() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure TCP transfer times of raw bytes and xmat containers",
		Commands: []*cli.Command{
			benchSubCmd("native-server", "Receive raw byte messages and time them", true, bench.NativeServer),
			benchSubCmd("native-client", "Send raw byte messages and time them", false, bench.NativeClient),
			benchSubCmd("xmat-server", "Receive xmat messages and time them", true, bench.XmatServer),
			benchSubCmd("xmat-client", "Send xmat messages and time them", false, bench.XmatClient),
		},
	}
}

func benchSubCmd(name, usage string, server bool, run benchRunner) *cli.Command {
	var opts benchOptions
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: benchFlags(&opts),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx).With("bench", name)
			applyBenchConfig(cmd, conf, &opts)

			cfg, err := opts.config()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var conn *xnet.Connection
			if server {
				conn, err = acceptOne(ctx, opts.addr, int(opts.backlog), log)
			} else {
				conn, err = xnet.Dial(ctx, opts.addr)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = conn.Close() }()
			log.Info("connected", "local", conn.LocalAddr().String(), "remote", conn.RemoteAddr().String())

			res, err := run(ctx, conn, cfg, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return printResult(cmd.Root().Writer, res, opts.jsonOut)
		},
	}
}

func (o benchOptions) config() (bench.Config, error) {
	t, err := xmat.ParseType(o.dtype)
	if err != nil {
		return bench.Config{}, err
	}
	cfg := bench.Config{
		MinPow: int(o.minPow),
		MaxPow: int(o.maxPow),
		Repeat: int(o.repeat),
		Warmup: int(o.warmup),
		DType:  t,
	}
	return cfg, cfg.Validate()
}

// acceptOne listens on addr and returns the first accepted connection.
// The listener is closed before returning.
func acceptOne(ctx context.Context, addr string, backlog int, log logger.Logger) (*xnet.Connection, error) {
	l, err := xnet.Listen(addr, backlog)
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	log.Info("waiting for connection", "address", l.Addr().String())
	c, err := l.Accept()
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return c, err
}

func printResult(w io.Writer, res *bench.Result, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return res.WriteSummary(w)
}
