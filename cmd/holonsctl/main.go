// Command holonsctl is a reference CLI over the go-holons transport
// package: it opens a listener on the URI given by --listen
// or --port, and on --manifest prints the static capability JSON and
// exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/organic-programming/go-holons/cmdflags"
	"github.com/organic-programming/go-holons/manifest"
	"github.com/organic-programming/go-holons/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "holonsctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	printManifest := flag.NewFlagSet("holonsctl", flag.ContinueOnError)
	manifestFlag := printManifest.Bool("manifest", false, "print the capability manifest and exit")
	verbose := printManifest.Bool("verbose", false, "enable debug logging")

	// cmdflags.Parse owns --listen/--port; this flag set only collects
	// them so they can be forwarded to cmdflags along with the remainder.
	var listenArgs []string
	forward := func(name string) func(string) error {
		return func(v string) error {
			listenArgs = append(listenArgs, "--"+name, v)
			return nil
		}
	}
	printManifest.Func("listen", "listen URI, forwarded to cmdflags", forward("listen"))
	printManifest.Func("port", "TCP port, forwarded to cmdflags", forward("port"))

	if err := printManifest.Parse(args); err != nil {
		return err
	}

	if *manifestFlag {
		raw, err := manifest.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	logger := newLogger(*verbose)

	opts, err := cmdflags.Parse(append(listenArgs, printManifest.Args()...))
	if err != nil {
		return err
	}

	ln, err := transport.ListenRuntime(opts.Listen)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", opts.Listen, err)
	}
	defer ln.Close()

	logger.Info("listening", "uri", ln.BoundURI())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	acceptErrCh := make(chan error, 1)
	go func() {
		acceptErrCh <- acceptLoop(ctx, ln, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-acceptErrCh:
		if err != nil && !errors.Is(err, transport.ErrListenerClosed) {
			return fmt.Errorf("accept loop: %w", err)
		}
	}

	return nil
}

func acceptLoop(ctx context.Context, ln transport.RuntimeListener, logger *slog.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		logger.Debug("accepted connection")
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
