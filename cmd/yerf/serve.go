package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/yerf"
	"github.com/aretw0/yerf/internal/config"
	"github.com/aretw0/yerf/internal/presentation/tui"
	httpAdapter "github.com/aretw0/yerf/pkg/adapters/http"
	"github.com/aretw0/yerf/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/yerf/pkg/adapters/redis"
	"github.com/aretw0/yerf/pkg/clock"
	"github.com/aretw0/yerf/pkg/observability"
	"github.com/aretw0/yerf/pkg/ports"
	"github.com/aretw0/yerf/pkg/reporting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sample collector",
	Long: `Starts an HTTP collector that validates posted batches and stores them in
memory or in a Redis list. The collector times its own startup with yerf and
reports those samples to the same store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.Listen = addr
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	clk, err := clock.Parse(cfg.ClockSource)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg, observability.WithLogger(logger))

	tracker := yerf.New(
		yerf.WithClock(clk),
		yerf.WithLogger(logger),
		yerf.WithLifecycleHooks(metrics.Hooks()),
	)
	startup := tracker.Start("serve").Waterfall("sink", "listener")

	startup.Start("sink")
	sink, closeSink := newSink(cfg)
	defer closeSink()
	startup.Stop("sink")

	handler, err := httpAdapter.NewHandler(sink,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithSnapshots(tracker),
		httpAdapter.WithMetrics(reg),
	)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := reporting.NewScheduler(tracker, sink,
		reporting.WithSchedule(cfg.Schedule()),
		reporting.WithLogger(logger),
		reporting.WithFlushObserver(metrics.ObserveFlush),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("collector listening", "addr", srv.Addr)
		startup.Start("listener")
		startup.Stop("listener")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx, shutdownTimeout)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down collector")

		// Give outstanding requests a deadline for completion.
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("collector stopped gracefully")
	return nil
}

func newSink(cfg config.Config) (ports.Sink, func()) {
	if cfg.Redis.Addr == "" {
		return memory.NewSink(), func() {}
	}
	opts := []redisAdapter.Option{redisAdapter.WithMaxLen(cfg.Redis.MaxLen)}
	if cfg.Redis.Key != "" {
		opts = append(opts, redisAdapter.WithKey(cfg.Redis.Key))
	}
	rs := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
	return rs, func() { _ = rs.Close() }
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
