package main

import (
	"github.com/urfave/cli/v3"

	"github.com/signalarray/xmat/internal/bench"
)

const defaultAddress = "127.0.0.1:27015"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// conf is the config file loaded by the root Before hook.
	conf Config
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml",
		Value:       configPath(),
		Destination: &configFile,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// netOptions are shared by every command that opens a socket.
type netOptions struct {
	addr    string
	backlog int64
}

func addrFlags(o *netOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "host:port to listen on or connect to",
			Value:       defaultAddress,
			Destination: &o.addr,
		},
		&cli.Int64Flag{
			Name:        "backlog",
			Usage:       "listen backlog (0 uses the system maximum)",
			Value:       1,
			Destination: &o.backlog,
		},
	}
}

type benchOptions struct {
	netOptions
	repeat  int64
	minPow  int64
	maxPow  int64
	warmup  int64
	dtype   string
	jsonOut bool
}

func benchFlags(o *benchOptions) []cli.Flag {
	def := bench.DefaultConfig()
	return append(addrFlags(&o.netOptions),
		&cli.Int64Flag{
			Name:        "repeat",
			Aliases:     []string{"r"},
			Usage:       "messages per size",
			Value:       int64(def.Repeat),
			Destination: &o.repeat,
		},
		&cli.Int64Flag{
			Name:        "min-pow",
			Usage:       "smallest message size as a power of two",
			Value:       int64(def.MinPow),
			Destination: &o.minPow,
		},
		&cli.Int64Flag{
			Name:        "max-pow",
			Usage:       "largest message size as a power of two",
			Value:       int64(def.MaxPow),
			Destination: &o.maxPow,
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "leading samples per size excluded from the mean",
			Value:       int64(def.Warmup),
			Destination: &o.warmup,
		},
		&cli.StringFlag{
			Name:        "dtype",
			Usage:       "element type of xmat messages (float64, int32, complex128, ...)",
			Value:       def.DType.String(),
			Destination: &o.dtype,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the result as JSON",
			Destination: &o.jsonOut,
		},
	)
}
