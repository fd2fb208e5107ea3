package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	app "github.com/okian/gearscan/internal/app"
	"github.com/okian/gearscan/internal/config"
	"github.com/okian/gearscan/pkg/logger"
	"github.com/okian/gearscan/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "gearscan failed", logger.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, cleanup, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	var srv *http.Server
	if cfg.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           newMux(ctx, svc),
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	replayDone := make(chan error, 1)
	if cfg.FramesDir != "" {
		src, err := newSource(cfg, log)
		if err != nil {
			return err
		}
		go func() { replayDone <- svc.Run(ctx, src) }()
	} else {
		log.Info(ctx, "no frames_dir configured; serving API only")
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-replayDone:
		if runErr == nil && srv != nil {
			log.Info(ctx, "replay finished; serving results until interrupted")
			<-ctx.Done()
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if srv != nil {
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
		log.Info(ctx, "server stopped")
	}
	return runErr
}

// startSystemMetricsUpdater periodically records process metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	metrics.UpdateResultsTotal(svc.Count(ctx))
}
