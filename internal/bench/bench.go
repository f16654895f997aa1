// Package bench measures message transfer times over xnet connections, both
// as raw byte payloads and as xmat containers.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/signalarray/xmat/internal/logger"
	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

// Config selects the message sizes and repetitions of a run. Sizes are
// 2^MinPow through 2^MaxPow; for container runs they count elements of DType.
type Config struct {
	MinPow int
	MaxPow int
	Repeat int
	// Warmup samples per size are excluded from means.
	Warmup int
	DType  xmat.TypeID
}

func DefaultConfig() Config {
	return Config{MinPow: 10, MaxPow: 20, Repeat: 32, Warmup: 2, DType: xmat.TypeFloat64}
}

func (c Config) Validate() error {
	switch {
	case c.MinPow < 0 || c.MaxPow > 30 || c.MinPow > c.MaxPow:
		return fmt.Errorf("bench: invalid size range 2^%d..2^%d", c.MinPow, c.MaxPow)
	case c.Repeat <= 0:
		return fmt.Errorf("bench: repeat must be positive, got %d", c.Repeat)
	case c.Warmup < 0 || c.Warmup >= c.Repeat:
		return fmt.Errorf("bench: warmup %d must be in [0, repeat)", c.Warmup)
	case !c.DType.Valid():
		return fmt.Errorf("bench: %w", xmat.ErrUnsupportedType)
	}
	return nil
}

func (c Config) Sizes() []int {
	sizes := make([]int, 0, c.MaxPow-c.MinPow+1)
	for k := c.MinPow; k <= c.MaxPow; k++ {
		sizes = append(sizes, 1<<k)
	}
	return sizes
}

// span is the number of source elements needed to slide a window of the
// largest size by one element per message.
func (c Config) span() int {
	sizes := c.Sizes()
	return sizes[len(sizes)-1] + c.Repeat + len(sizes)
}

// Result holds one timing sample per message, indexed [size][repeat].
type Result struct {
	Name    string            `json:"name"`
	DType   string            `json:"dtype,omitempty"`
	Sizes   []int             `json:"sizes"`
	Warmup  int               `json:"warmup"`
	Samples [][]time.Duration `json:"samples_ns"`
}

func newResult(name string, cfg Config) *Result {
	sizes := cfg.Sizes()
	r := &Result{Name: name, Sizes: sizes, Warmup: cfg.Warmup, Samples: make([][]time.Duration, len(sizes))}
	for i := range r.Samples {
		r.Samples[i] = make([]time.Duration, 0, cfg.Repeat)
	}
	return r
}

// Mean is the average sample for size index i, excluding warm-up samples.
func (r *Result) Mean(i int) time.Duration {
	s := r.Samples[i]
	if len(s) > r.Warmup {
		s = s[r.Warmup:]
	}
	if len(s) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s {
		sum += d
	}
	return sum / time.Duration(len(s))
}

// WriteSummary prints one line per size with its mean time.
func (r *Result) WriteSummary(w io.Writer) error {
	title := r.Name
	if r.DType != "" {
		title += ":" + r.DType
	}
	if _, err := fmt.Fprintf(w, "%s summary:\n", title); err != nil {
		return err
	}
	for i, size := range r.Sizes {
		if _, err := fmt.Fprintf(w, "%12.0fK: %14.9f sec\n", float64(size)/1024, r.Mean(i).Seconds()); err != nil {
			return err
		}
	}
	return nil
}

var errMismatch = errors.New("bench: payload mismatch")

// NativeClient sends raw byte payloads of each size.
func NativeClient(ctx context.Context, c *xnet.Connection, cfg Config, log logger.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	data := make([]byte, cfg.span())
	for i := range data {
		data[i] = byte(i % 256)
	}

	res := newResult("native-client", cfg)
	for n, size := range res.Sizes {
		log.Debug("message size", "bytes", size)
		for m := range cfg.Repeat {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			off := n + m
			start := time.Now()
			if err := c.SendBytes(data[off : off+size]); err != nil {
				return res, err
			}
			res.Samples[n] = append(res.Samples[n], time.Since(start))
		}
		log.Info("finished size", "kib", size/1024, "mean", res.Mean(n))
	}
	return res, nil
}

// NativeServer receives what NativeClient sends and checks each payload.
func NativeServer(ctx context.Context, c *xnet.Connection, cfg Config, log logger.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := newResult("native-server", cfg)
	for n, size := range res.Sizes {
		log.Debug("message size", "bytes", size)
		for m := range cfg.Repeat {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			start := time.Now()
			buf, err := c.RecvBytes(size)
			if err != nil {
				return res, err
			}
			res.Samples[n] = append(res.Samples[n], time.Since(start))
			off := n + m
			if buf[0] != byte(off%256) || buf[size-1] != byte((off+size-1)%256) {
				return res, fmt.Errorf("%w: size %d repeat %d", errMismatch, size, m)
			}
		}
		log.Info("finished size", "kib", size/1024, "mean", res.Mean(n))
	}
	return res, nil
}

// XmatClient sends one container per message holding a "data" array of
// cfg.DType elements.
func XmatClient(ctx context.Context, c *xnet.Connection, cfg Config, log logger.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slice, err := arange(cfg.DType, cfg.span())
	if err != nil {
		return nil, err
	}
	w, err := xmat.NewMemWriter(xmat.NativeEndian())
	if err != nil {
		return nil, err
	}

	res := newResult("xmat-client", cfg)
	res.DType = cfg.DType.String()
	for n, size := range res.Sizes {
		log.Debug("message size", "elements", size, "dtype", res.DType)
		for m := range cfg.Repeat {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			start := time.Now()
			if err := w.Reset(); err != nil {
				return res, err
			}
			v, err := slice(n+m, size)
			if err != nil {
				return res, err
			}
			if err := w.SetItem("data", v); err != nil {
				return res, err
			}
			if err := w.Close(); err != nil {
				return res, err
			}
			if err := c.Send(w); err != nil {
				return res, err
			}
			res.Samples[n] = append(res.Samples[n], time.Since(start))
		}
		log.Info("finished size", "kib", size/1024, "mean", res.Mean(n))
	}
	return res, nil
}

// XmatServer receives what XmatClient sends, decodes each "data" block and
// checks that it holds the expected window of the sequence.
func XmatServer(ctx context.Context, c *xnet.Connection, cfg Config, log logger.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slice, err := arange(cfg.DType, cfg.span())
	if err != nil {
		return nil, err
	}
	res := newResult("xmat-server", cfg)
	res.DType = cfg.DType.String()
	for n, size := range res.Sizes {
		log.Debug("message size", "elements", size, "dtype", res.DType)
		for m := range cfg.Repeat {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			start := time.Now()
			msg, err := c.Recv()
			if err != nil {
				return res, err
			}
			v, err := msg.Get("data")
			_ = msg.Close()
			if err != nil {
				return res, err
			}
			res.Samples[n] = append(res.Samples[n], time.Since(start))
			if v.Len() != size || v.Type() != cfg.DType {
				return res, fmt.Errorf("%w: got %s, want %d x %s", errMismatch, v, size, cfg.DType)
			}
			want, err := slice(n+m, 1)
			if err != nil {
				return res, err
			}
			if got, exp := firstElement(v), firstElement(want); got != exp {
				return res, fmt.Errorf("%w: size %d repeat %d starts with %v, want %v", errMismatch, size, m, got, exp)
			}
		}
		log.Info("finished size", "kib", size/1024, "mean", res.Mean(n))
	}
	return res, nil
}
