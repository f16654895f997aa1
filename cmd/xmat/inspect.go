package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/signalarray/xmat/pkg/xmat"
)

type headerInfo struct {
	Signature string `json:"signature"`
	Endian    string `json:"endian"`
	Total     uint64 `json:"total"`
	IntWidth  uint8  `json:"int_width"`
	MaxNDim   uint8  `json:"max_ndim"`
	MaxName   uint8  `json:"max_name"`
}

type blockInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Order   string   `json:"order"`
	Shape   []uint64 `json:"shape"`
	Offset  int64    `json:"offset"`
	Payload uint64   `json:"payload_bytes"`
	Digest  string   `json:"xxh64"`
}

type inspectReport struct {
	Path   string      `json:"path"`
	Header headerInfo  `json:"header"`
	Blocks []blockInfo `json:"blocks"`
}

func inspectCmd() *cli.Command {
	var (
		asJSON bool
		noMmap bool
		text   string
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the header and blocks of an xmat container file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "no-mmap", Usage: "read through the file instead of mapping it", Destination: &noMmap},
			&cli.StringFlag{
				Name:        "text",
				Usage:       "show byte blocks as text (none, ascii, utf8)",
				Value:       "none",
				Destination: &text,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: missing FILE argument", 1)
			}
			mode, err := xmat.ParseTextMode(text)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			open := xmat.OpenMappedFile
			if noMmap {
				open = xmat.OpenFile
			}
			r, err := open(path, xmat.WithTextDecoding(mode))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = r.Close() }()

			rep, err := buildReport(path, r)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			out := cmd.Root().Writer
			if asJSON {
				data, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			return printReport(out, rep, r, mode != xmat.TextNone)
		},
	}
}

func buildReport(path string, r *xmat.Reader) (inspectReport, error) {
	h := r.Header()
	rep := inspectReport{
		Path: path,
		Header: headerInfo{
			Signature: string(h.Signature[:]),
			Endian:    r.Endian().String(),
			Total:     h.Total,
			IntWidth:  h.IntWidth,
			MaxNDim:   h.MaxNDim,
			MaxName:   h.MaxName,
		},
		Blocks: []blockInfo{},
	}
	for _, b := range r.Blocks() {
		sum, err := r.Digest(b.Name)
		if err != nil {
			return rep, err
		}
		rep.Blocks = append(rep.Blocks, blockInfo{
			Name:    b.Name,
			Type:    b.Type.String(),
			Order:   b.Order.String(),
			Shape:   b.Shape,
			Offset:  b.Offset,
			Payload: b.PayloadSize(),
			Digest:  fmt.Sprintf("%016x", sum),
		})
	}
	return rep, nil
}

func printReport(w io.Writer, rep inspectReport, r *xmat.Reader, showText bool) error {
	h := rep.Header
	fmt.Fprintf(w, "file:      %s\n", rep.Path)
	fmt.Fprintf(w, "signature: %s\n", h.Signature)
	fmt.Fprintf(w, "endian:    %s\n", h.Endian)
	fmt.Fprintf(w, "total:     %d bytes\n", h.Total)
	fmt.Fprintf(w, "limits:    int_width=%d max_ndim=%d max_name=%d\n", h.IntWidth, h.MaxNDim, h.MaxName)
	fmt.Fprintf(w, "blocks:    %d\n\n", len(rep.Blocks))

	if len(rep.Blocks) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%-32s %-10s %-5s %-20s %10s %12s  %-16s\n", "NAME", "TYPE", "ORDER", "SHAPE", "OFFSET", "BYTES", "XXH64")
	for _, b := range rep.Blocks {
		fmt.Fprintf(w, "%-32s %-10s %-5s %-20s %10d %12d  %s\n",
			b.Name, b.Type, b.Order, formatShape(b.Shape), b.Offset, b.Payload, b.Digest)
		if showText && b.Type == xmat.TypeBytes.String() {
			if s, err := r.GetString(b.Name); err == nil {
				fmt.Fprintf(w, "    %q\n", s)
			}
		}
	}
	return nil
}

func formatShape(shape []uint64) string {
	if len(shape) == 0 {
		return "()"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = fmt.Sprint(n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
