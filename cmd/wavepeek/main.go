package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/wavepeek/internal/batch"
	"github.com/satindergrewal/wavepeek/internal/config"
	"github.com/satindergrewal/wavepeek/internal/logging"
	"github.com/satindergrewal/wavepeek/internal/probe"
	"github.com/satindergrewal/wavepeek/internal/server"
	"github.com/satindergrewal/wavepeek/internal/waveform"
)

const usage = `Usage:
  wavepeek [serve]                                   run the HTTP API
  wavepeek extract [-samples N] [-workers W] ref...  print one JSON line per reference
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wavepeek: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	extractor := newExtractor(cfg, logger)

	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		if err := serve(ctx, cfg, extractor, logger); err != nil {
			logger.Errorw("HTTP server error", "error", err)
			return 1
		}
		return 0
	case "extract":
		return extract(ctx, cfg, extractor, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

func newExtractor(cfg config.Config, logger *zap.SugaredLogger) *waveform.Extractor {
	if cfg.Backend == config.BackendNative {
		logger.Infow("using in-process decoders")
		return waveform.NewExtractor(probe.Native{}, waveform.Native{}, logger)
	}
	return waveform.NewExtractor(
		probe.FFprobe{Bin: cfg.FFprobePath},
		waveform.FFmpeg{Bin: cfg.FFmpegPath, Logger: logger},
		logger,
	)
}

func serve(ctx context.Context, cfg config.Config, extractor *waveform.Extractor, logger *zap.SugaredLogger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(extractor, cfg.Samples, cfg.MaxSamples, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infow("wavepeek listening", "addr", addr, "backend", cfg.Backend)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func extract(ctx context.Context, cfg config.Config, c batch.Computer, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	samples := fs.Int("samples", cfg.Samples, "peaks per waveform")
	workers := fs.Int("workers", cfg.Workers, "references processed at once")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	if *samples < 1 {
		fmt.Fprintln(os.Stderr, "-samples must be at least 1")
		return 2
	}

	code := 0
	enc := json.NewEncoder(out)
	for _, item := range batch.Run(ctx, c, fs.Args(), *samples, *workers) {
		if !item.OK() {
			code = 1
		}
		if err := enc.Encode(item); err != nil {
			fmt.Fprintf(os.Stderr, "write result: %v\n", err)
			return 1
		}
	}
	return code
}
