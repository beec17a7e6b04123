package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/offers-tracker/constants"
	"github.com/joseph-ayodele/offers-tracker/internal/app"
	"github.com/joseph-ayodele/offers-tracker/internal/async"
	"github.com/joseph-ayodele/offers-tracker/internal/common"
	"github.com/joseph-ayodele/offers-tracker/internal/ingest"
	"github.com/joseph-ayodele/offers-tracker/internal/server"
)

func main() {
	configFile := flag.String("config", "", "optional config file (yaml, toml or json)")
	flag.Parse()

	cfg, err := common.Load(*configFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("offersd.failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var queue async.Queue = async.NewSerialQueue(a.Processor, logger,
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)

	paths, watchErrs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
		Dir:         cfg.Watch.Dir,
		AllowedExts: constants.AllowedExtensions,
		InitialScan: cfg.Watch.InitialScan,
		Debounce:    cfg.Watch.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	g.Go(func() error {
		for p := range paths {
			job := async.Job{Path: p, Source: "watch", SubmittedAt: time.Now()}
			if err := queue.Enqueue(gctx, job); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, async.ErrClosed) {
					return nil
				}
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for err := range watchErrs {
			logger.Warn("watcher.error", "err", err)
		}
		return nil
	})

	checks := map[string]server.HealthFunc{
		"watch_dir": func(context.Context) error {
			_, err := os.Stat(cfg.Watch.Dir)
			return err
		},
	}
	if a.DB != nil {
		checks["journal"] = func(ctx context.Context) error { return a.DB.HealthCheck(ctx, time.Second) }
	}

	if cfg.Server.AdminAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.AdminAddr)
		if err != nil {
			return fmt.Errorf("listen admin: %w", err)
		}
		var h http.Handler = server.NewAdmin(a.Journal, a.Registry, checks, logger).Router()
		g.Go(func() error { return server.ServeHTTP(gctx, h, lis, cfg.Server.ShutdownTimeout, logger) })
	}

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		srv, hs := server.NewGRPC()
		server.SetServing(hs, true)
		g.Go(func() error {
			<-gctx.Done()
			server.SetServing(hs, false)
			return nil
		})
		g.Go(func() error { return server.ServeGRPC(gctx, srv, lis, logger) })
	}

	logger.Info("offersd.started", "watch", cfg.Watch.Dir, "ledger", cfg.Ledger.Path)
	err = g.Wait()

	logger.Info("offersd.stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+cfg.Queue.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	return err
}
