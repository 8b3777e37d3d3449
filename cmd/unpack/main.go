package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/joho/godotenv"

	"unpack/pkg/env"
	"unpack/pkg/initialization"
	"unpack/pkg/logger"
	"unpack/pkg/stream"
	"unpack/pkg/unpack"
)

const usage = `Usage:
  unpack <archive-uri> <output-dir>
  unpack <port> <node-id> <output-dir>

<archive-uri> is a local path or an http(s) URL. The port form reads
http://localhost:<port>/api/v1/nodes/<node-id>/stream.
Entries are written to <output-dir>/<id>/.
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// Load environment variables for logger and bootstrap
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	// Initialize Logger early so bootstrap can use it
	logger.Init(env.LogLevel())

	comp, err := initialization.Bootstrap()
	if err != nil {
		initialization.ExitWithError(err)
	}
	defer logger.Close()

	newContext, err := parseArgs(flag.Args(), comp.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(initialization.ExitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = retry.Do(
		func() error {
			c, err := newContext()
			if err != nil {
				return retry.Unrecoverable(err)
			}
			_, err = c.Run(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(comp.Config.RetryAttempts)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(stream.IsTransport),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Unpack failed, retrying", "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		logger.Error("Unpack failed", "err", err)
		stop()
		initialization.ExitWithError(err)
	}
}

// parseArgs returns a constructor so every retry starts from a fresh
// stream.
func parseArgs(args []string, opts unpack.Options) (func() (*unpack.Context, error), error) {
	switch len(args) {
	case 2:
		uri, dest := args[0], args[1]
		if _, err := unpack.NewContext(uri, dest, opts); err != nil {
			return nil, err
		}
		return func() (*unpack.Context, error) { return unpack.NewContext(uri, dest, opts) }, nil
	case 3:
		port, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil || port == 0 {
			return nil, fmt.Errorf("invalid port %q", args[0])
		}
		id, dest := args[1], args[2]
		if _, err := unpack.NewNodeContext(uint16(port), id, dest, opts); err != nil {
			return nil, err
		}
		return func() (*unpack.Context, error) { return unpack.NewNodeContext(uint16(port), id, dest, opts) }, nil
	default:
		return nil, fmt.Errorf("expected 2 or 3 arguments, got %d", len(args))
	}
}
