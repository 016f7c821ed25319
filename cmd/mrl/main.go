// Command mrl builds an MRL sketch over a stream of integers, prints it
// and optionally answers queries interactively or over HTTP.
//
// Usage:
//
//	mrl -n 14 -e 0.8 -i stream.txt [--print-output] [--interactive] [--serve :8080]
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axiomhq/mrl"
	"github.com/axiomhq/mrl/internal/config"
	"github.com/axiomhq/mrl/internal/console"
	"github.com/axiomhq/mrl/internal/logging"
	"github.com/axiomhq/mrl/internal/server"
	"github.com/axiomhq/mrl/internal/source"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	exitOverflow = 1
	exitUsage    = 2
)

func main() {
	fs := pflag.NewFlagSet("mrl", pflag.ExitOnError)
	config.RegisterSketchFlags(fs)
	config.RegisterConsoleFlags(fs)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "mrl:", err)
		os.Exit(exitUsage)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mrl:", err)
		os.Exit(exitUsage)
	}
	code := run(cfg, logger)
	logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logger *zap.Logger) int {
	sketch, err := build(cfg, logger)
	if err != nil {
		var overflow *mrl.OverflowError
		if errors.As(err, &overflow) {
			logger.Error("sketch overflow",
				zap.Float64("epsilon", overflow.Epsilon),
				zap.Int64("n", overflow.N),
				zap.Int64("levels", overflow.Levels),
				zap.Int64("value", overflow.Value))
			return exitOverflow
		}
		logger.Error("unable to build sketch", zap.Error(err))
		return exitUsage
	}

	if err := sketch.TraceErr(); err != nil {
		logger.Warn("trace output stopped", zap.Error(err))
	}

	fmt.Println("Final sketch:")
	if err := sketch.Fprint(os.Stdout, cfg.Compressed); err != nil {
		logger.Error("print sketch", zap.Error(err))
		return 1
	}

	if cfg.Interactive {
		session := &console.Session{
			In:     os.Stdin,
			Out:    os.Stdout,
			Err:    os.Stderr,
			Sketch: sketch,
			N:      sketch.N(),
		}
		if err := session.Run(); err != nil {
			logger.Error("console", zap.Error(err))
			return 1
		}
	}

	if cfg.Serve != "" {
		if err := serve(cfg.Serve, sketch, logger); err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	}
	return 0
}

// build streams the configured input into a new sketch.
func build(cfg *config.Config, logger *zap.Logger) (*mrl.Sketch, error) {
	var opts []mrl.Option
	if cfg.PrintOutput {
		opts = append(opts, mrl.WithTrace(os.Stdout))
	}

	if cfg.Generate != "" {
		values, err := source.Generate(cfg.Generate, cfg.N, cfg.Seed)
		if err != nil {
			return nil, err
		}
		sketch, err := mrl.New(cfg.Epsilon, cfg.N, opts...)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if err := sketch.Insert(v); err != nil {
				return nil, err
			}
		}
		return sketch, nil
	}

	n := cfg.N
	if n == 0 {
		var err error
		if n, err = source.Count(cfg.InputPath); err != nil {
			return nil, err
		}
		logger.Info("counted input stream", zap.String("path", cfg.InputPath), zap.Int64("n", n))
	}
	sketch, err := mrl.New(cfg.Epsilon, n, opts...)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %q", cfg.InputPath)
	}
	defer f.Close()
	if err := insertAll(sketch, f, logger); err != nil {
		return nil, err
	}
	logger.Info("sketch built",
		zap.Int64("count", sketch.Count()),
		zap.Int64("k", sketch.K()),
		zap.Int64("levels", sketch.Levels()))
	return sketch, nil
}

func insertAll(sketch *mrl.Sketch, r io.Reader, logger *zap.Logger) error {
	sc := source.NewScanner(r)
	sc.OnError = func(e *source.ParseError) {
		logger.Warn("skipping line",
			zap.Int("line", e.Line),
			zap.String("content", e.Content),
			zap.Error(e.Err))
	}
	for sc.Scan() {
		if err := sketch.Insert(sc.Value()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func serve(addr string, sketch *mrl.Sketch, logger *zap.Logger) error {
	handler, err := server.New(sketch, logger)
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving queries", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	logger.Info("server stopped")
	return nil
}
