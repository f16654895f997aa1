package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/signalarray/xmat/internal/logger"
	"github.com/signalarray/xmat/internal/monitor"
	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

func TestServeReplies(t *testing.T) {
	log := logger.Discard()
	svc := xnet.NewService(xnet.WithServiceLogger(log))
	l, err := svc.Listen("127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	l.Handle(func(c *xnet.Connection) { c.Handle(replyHandler(log)) })

	ctx, cancel := context.WithCancel(context.Background())
	st := monitor.NewStats()
	done := make(chan error, 1)
	go func() { done <- serveLoop(ctx, svc, st, log) }()
	defer func() {
		cancel()
		<-done
		_ = svc.Close()
	}()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	c, err := xnet.Dial(dialCtx, l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = c.Close() }()

	var out bytes.Buffer
	for n := range int64(3) {
		if err := ping(c, &out, n, "hi"); err != nil {
			t.Fatalf("ping %d: %v", n, err)
		}
	}
	text := out.String()
	if got := strings.Count(text, "msg: hi.reply"); got != 3 {
		t.Fatalf("expected 3 replies, got %d:\n%s", got, text)
	}
	if !strings.Contains(text, "n: 2") || !strings.Contains(text, "data: [1 2 3 4 5 6 7 8]") {
		t.Fatalf("unexpected reply fields:\n%s", text)
	}

	w, err := xmat.NewMemWriter(xmat.NativeEndian())
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := w.SetString("command", "stop"); err != nil {
		t.Fatalf("set command: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := c.Send(w); err != nil {
		t.Fatalf("send stop: %v", err)
	}
	if _, err := c.Recv(); !errors.Is(err, xnet.ErrConnClosed) {
		t.Fatalf("expected server to close the connection, got %v", err)
	}
}

func TestReplyEchoesBinaryMsg(t *testing.T) {
	log := logger.Discard()
	svc := xnet.NewService()
	l, err := svc.Listen("127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = svc.Close() }()
	l.Handle(func(c *xnet.Connection) { c.Handle(replyHandler(log)) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := xnet.Dial(ctx, l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = c.Close() }()
	if _, err := svc.Process(xnet.ScopeListeners, 2*time.Second); err != nil {
		t.Fatalf("accept: %v", err)
	}

	w, err := xmat.NewMemWriter(xmat.BigEndian)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := w.SetBytes("msg", []byte("raw")); err != nil {
		t.Fatalf("set msg: %v", err)
	}
	if err := xmat.SetScalar(w, "flag", true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := c.Send(w); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Process(xnet.ScopeConnections, 2*time.Second); err != nil {
		t.Fatalf("process: %v", err)
	}

	r, err := c.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	defer func() { _ = r.Close() }()
	if r.Endian() != xmat.BigEndian {
		t.Fatalf("reply should keep the request byte order, got %s", r.Endian())
	}
	msg, err := r.GetString("msg")
	if err != nil || msg != "raw.reply" {
		t.Fatalf("msg = %q, %v", msg, err)
	}
	flag, err := xmat.GetScalar[bool](r, "flag")
	if err != nil || !flag {
		t.Fatalf("flag = %v, %v", flag, err)
	}
}
