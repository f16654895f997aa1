package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/signalarray/xmat/internal/logger"
	"github.com/signalarray/xmat/internal/monitor"
	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

// pollInterval bounds how long the serve loop waits before checking for
// cancellation.
const pollInterval = 250 * time.Millisecond

func serveCmd() *cli.Command {
	var (
		opts       netOptions
		statusAddr string
		maxMsg     int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run a reply server that echoes every received container",
		Flags: append(addrFlags(&opts),
			&cli.StringFlag{
				Name:        "status-addr",
				Usage:       "serve GET /v1/status on this address (disabled when empty)",
				Destination: &statusAddr,
			},
			&cli.Int64Flag{
				Name:        "max-message",
				Usage:       "largest accepted message in bytes",
				Value:       int64(xnet.DefaultMaxMessageSize),
				Destination: &maxMsg,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, conf, &opts, &statusAddr)

			svc := xnet.NewService(
				xnet.WithServiceLogger(log),
				xnet.WithMaxMessageSize(uint64(maxMsg)),
			)
			defer func() { _ = svc.Close() }()

			l, err := svc.Listen(opts.addr, int(opts.backlog))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			l.Handle(func(c *xnet.Connection) {
				log.Info("accepted", "id", c.ID(), "remote", c.RemoteAddr().String())
				c.Handle(replyHandler(log))
			})
			log.Info("serving", "address", l.Addr().String())

			var st *monitor.Stats
			if statusAddr != "" {
				st = monitor.NewStats()
				go func() {
					log.Info("starting status server", "address", statusAddr)
					if err := monitor.Start(ctx, statusAddr, st); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("status server stopped", "error", err)
					}
				}()
			}
			return serveLoop(ctx, svc, st, log)
		},
	}
}

// serveLoop processes svc until ctx is done.
func serveLoop(ctx context.Context, svc *xnet.Service, st *monitor.Stats, log logger.Logger) error {
	for ctx.Err() == nil {
		if _, err := svc.Process(xnet.ScopeAll, pollInterval); err != nil {
			log.Warn("process", "error", err)
		}
		if st != nil {
			st.Update(svc)
		}
	}
	return nil
}

// replyHandler sends every field back with ".reply" appended to a text "msg"
// field. A "command" field equal to "stop" closes the connection instead.
func replyHandler(log logger.Logger) xnet.MessageHandler {
	return func(c *xnet.Connection, msg *xmat.Reader) error {
		if cmd, err := msg.GetString("command"); err == nil && cmd == "stop" {
			log.Info("stop requested", "id", c.ID())
			return c.Close()
		}

		w, err := xmat.NewMemWriter(msg.Endian())
		if err != nil {
			return err
		}
		for _, name := range msg.Keys() {
			v, err := msg.Get(name)
			if err != nil {
				return err
			}
			if s, ok := v.Text(); ok && name == "msg" {
				v = xmat.String(s + ".reply")
			}
			if err := w.SetItem(name, v); err != nil {
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		log.Debug("reply", "id", c.ID(), "fields", msg.Len())
		return c.Send(w)
	}
}
