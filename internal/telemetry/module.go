package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/pkg/logger"
)

// Module provides the Telemetry and, when METRICS_ADDR is set, a plain
// /metrics listener.
var Module = fx.Module("telemetry",
	fx.Provide(
		New,
		fx.Annotate(
			func(t *Telemetry) Capturer { return t },
			fx.As(new(Capturer)),
		),
	),
	fx.Invoke(registerMetricsServer),
)

func registerMetricsServer(lc fx.Lifecycle, t *Telemetry, cfg *config.Config, log *slog.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}

	log = log.With(logger.Scope("telemetry.metrics"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("metrics server failed", logger.Error(err))
				}
			}()
			log.Info("metrics server listening", slog.String("addr", cfg.MetricsAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
