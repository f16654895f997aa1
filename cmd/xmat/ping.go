package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/signalarray/xmat/internal/logger"
	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

func pingCmd() *cli.Command {
	var (
		opts  netOptions
		text  string
		count int64
		stop  bool
	)

	return &cli.Command{
		Name:  "ping",
		Usage: "Send a message to a reply server and print the answer",
		Flags: append(addrFlags(&opts),
			&cli.StringFlag{
				Name:        "msg",
				Usage:       "text sent in the msg field",
				Value:       "message from client: Go",
				Destination: &text,
			},
			&cli.Int64Flag{
				Name:        "count",
				Aliases:     []string{"n"},
				Usage:       "number of messages to send",
				Value:       1,
				Destination: &count,
			},
			&cli.BoolFlag{
				Name:        "stop",
				Usage:       "ask the server to close the connection afterwards",
				Destination: &stop,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyNetConfig(cmd, conf, &opts)

			c, err := xnet.Dial(ctx, opts.addr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = c.Close() }()
			log.Debug("connected", "id", c.ID(), "remote", c.RemoteAddr().String())

			out := cmd.Root().Writer
			for n := range count {
				if err := ping(c, out, n, text); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}
			if stop {
				w, err := xmat.NewMemWriter(xmat.NativeEndian())
				if err != nil {
					return err
				}
				if err := w.SetString("command", "stop"); err != nil {
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
				return c.Send(w)
			}
			return nil
		},
	}
}

// ping sends {n, msg, data} and prints the reply fields.
func ping(c *xnet.Connection, out io.Writer, n int64, text string) error {
	w, err := xmat.NewMemWriter(xmat.NativeEndian())
	if err != nil {
		return err
	}
	if err := xmat.SetScalar(w, "n", n); err != nil {
		return err
	}
	if err := w.SetString("msg", text); err != nil {
		return err
	}
	if err := xmat.SetArray(w, "data", []float64{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := c.Send(w); err != nil {
		return err
	}

	r, err := c.Recv()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	got, err := xmat.GetScalar[int64](r, "n")
	if err != nil {
		return err
	}
	msg, err := r.GetString("msg")
	if err != nil {
		return err
	}
	data, _, err := xmat.GetArray[float64](r, "data")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "n: %d\nmsg: %s\ndata: %v\n", got, msg, data)
	return err
}
