package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/talent-match-engine/internal/adapters/http"
	"github.com/kirillkom/talent-match-engine/internal/bootstrap"
	"github.com/kirillkom/talent-match-engine/internal/config"
	"github.com/kirillkom/talent-match-engine/internal/observability/logging"
	"github.com/kirillkom/talent-match-engine/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.NewWithMetrics(ctx, cfg, serverMetrics)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.MatchUC, serverMetrics, "api", httpadapter.RouterOptions{
		RateLimitRPS:          cfg.RateLimitRPS,
		RateLimitBurst:        cfg.RateLimitBurst,
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		ValidateRequests:      true,
		HealthChecks:          app.HealthChecks,
	}).Handler()

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		log.Fatalf("api listen error: %v", err)
	}
	if cfg.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConnections)
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: serverMetrics.Handler(),
	}
	go func() {
		slog.Info("metrics listening", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	go sweepIdleSessions(ctx, app, serverMetrics, cfg)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown error", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics shutdown error", "error", err)
	}
}

// sweepIdleSessions drops expired conversation contexts on a fixed interval
// so refinement state does not leak between unrelated searches.
func sweepIdleSessions(ctx context.Context, app *bootstrap.App, m *metrics.HTTPServerMetrics, cfg config.Config) {
	interval := time.Duration(cfg.SessionSweepMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	idle := time.Duration(cfg.SessionIdleMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.Sessions.DeleteIdle(ctx, idle)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("session sweep", "removed", removed)
				m.RecordSessionSweep("api", removed)
			}
		}
	}
}
