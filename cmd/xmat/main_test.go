package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/signalarray/xmat/internal/version"
	"github.com/signalarray/xmat/pkg/xmat"
)

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	argv := append([]string{"xmat", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...)
	if err := app.Run(context.Background(), argv); err != nil {
		t.Fatalf("xmat %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestVersionJSON(t *testing.T) {
	var info version.Info
	if err := json.Unmarshal([]byte(runApp(t, "version", "--json")), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version == "" || info.IntWidth != xmat.IntWidth {
		t.Fatalf("unexpected version info: %+v", info)
	}
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.xmat")
	w, err := xmat.CreateFile(path, xmat.BigEndian)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := xmat.SetScalar(w, "n", int32(7)); err != nil {
		t.Fatalf("set n: %v", err)
	}
	if err := w.SetString("msg", "hello"); err != nil {
		t.Fatalf("set msg: %v", err)
	}
	if err := xmat.SetArray(w, "data", []float64{1, 2, 3, 4, 5, 6}, 2, 3); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestInspectJSON(t *testing.T) {
	path := writeSample(t)

	var rep inspectReport
	if err := json.Unmarshal([]byte(runApp(t, "inspect", "--json", path)), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Header.Signature != xmat.Signature || rep.Header.Endian != xmat.BigEndian.String() {
		t.Fatalf("unexpected header: %+v", rep.Header)
	}
	if len(rep.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(rep.Blocks))
	}

	want := []struct {
		name, typ string
		ndim      int
		payload   uint64
	}{
		{"n", "int32", 0, 4},
		{"msg", "bytes", 1, 5},
		{"data", "float64", 2, 48},
	}
	for i, w := range want {
		b := rep.Blocks[i]
		if b.Name != w.name || b.Type != w.typ || len(b.Shape) != w.ndim || b.Payload != w.payload {
			t.Fatalf("block %d: got %+v want %+v", i, b, w)
		}
		if len(b.Digest) != 16 {
			t.Fatalf("block %d: digest %q", i, b.Digest)
		}
	}
}

func TestInspectTable(t *testing.T) {
	path := writeSample(t)
	out := runApp(t, "inspect", "--no-mmap", "--text", "utf8", path)
	for _, want := range []string{"signature: xmat", "blocks:    3", "(2, 3)", `"hello"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatShape(t *testing.T) {
	cases := map[string][]uint64{
		"()":        nil,
		"(4)":       {4},
		"(2, 3, 1)": {2, 3, 1},
	}
	for want, shape := range cases {
		if got := formatShape(shape); got != want {
			t.Fatalf("formatShape(%v) = %q, want %q", shape, got, want)
		}
	}
}
