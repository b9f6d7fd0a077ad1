// Command 9pdump decodes a captured stream of 9P messages and prints them.
//
//	9pdump [-config file] [-format text|yaml|json] [-level LEVEL] [input]
//
// The input is a file, "-" for standard input, or a dial string such as
// tcp!localhost!564 whose peer sends a message stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/keaganluttrell/ninep/internal/config"
	"github.com/keaganluttrell/ninep/internal/dump"
	"github.com/keaganluttrell/ninep/internal/logger"
	"github.com/keaganluttrell/ninep/pkg/resilience"
	"github.com/keaganluttrell/ninep/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "9pdump: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file")
	format := flag.String("format", "", "output format: text, yaml or json")
	level := flag.String("level", "", "log level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *format != "" {
		cfg.Dump.Format = *format
	}
	if *level != "" {
		cfg.Logging.Level = *level
	}
	if flag.NArg() > 0 {
		cfg.Dump.Input = flag.Arg(0)
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logOut, err := openLog(cfg.Logging.Output)
	if err != nil {
		return err
	}
	defer logOut.Close()
	logger.SetOutput(logOut)
	logger.SetLevel(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openInput(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	d, err := dump.New(os.Stdout, cfg.Dump.Format)
	if err != nil {
		return err
	}
	sum, err := d.Run(ctx, src)
	if werr := dump.WriteSummary(os.Stderr, sum); werr != nil && err == nil {
		err = werr
	}
	return err
}

func openInput(ctx context.Context, cfg *config.Config) (transport.Conn, error) {
	in := cfg.Dump.Input
	switch {
	case in == "-":
		return transport.NewStream(nopCloser{os.Stdin}, cfg.Dump.MaxMsize), nil
	case in == "io" || strings.Contains(in, "!"):
		d := transport.NewDialer()
		d.Msize = cfg.Dump.MaxMsize
		d.Retry.MaxRetries = cfg.Dial.MaxRetries
		d.Retry.InitialBackoff = cfg.Dial.InitialBackoff
		d.Retry.MaxBackoff = cfg.Dial.MaxBackoff
		d.Breaker = resilience.NewCircuitBreaker(cfg.Dial.MaxRetries+1, 1, cfg.Dial.MaxBackoff)
		logger.Info("dialing %s", in)
		return d.Dial(ctx, in)
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	return transport.NewStream(f, cfg.Dump.MaxMsize), nil
}

func openLog(output string) (io.WriteCloser, error) {
	switch output {
	case "stderr":
		return nopCloser{os.Stderr}, nil
	case "stdout":
		return nopCloser{os.Stdout}, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// nopCloser keeps the standard streams open.
type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }
