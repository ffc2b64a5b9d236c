// Package main provides the entry point for the Yardline job worker
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/yardline-app/yardline/domain/accounts"
	"github.com/yardline-app/yardline/domain/analytics"
	"github.com/yardline-app/yardline/domain/cleanup"
	"github.com/yardline-app/yardline/domain/email"
	"github.com/yardline-app/yardline/domain/favorites"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/domain/scheduler"
	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/internal/database"
	"github.com/yardline-app/yardline/internal/jobs"
	"github.com/yardline-app/yardline/internal/queuestore"
	"github.com/yardline-app/yardline/internal/telemetry"
	"github.com/yardline-app/yardline/pkg/logger"
)

func main() {
	// Load .env files if present (for local development)
	// Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		queuestore.Module,
		telemetry.Module,
		jobs.Module,

		// Domain modules
		accounts.Module,
		email.Module,
		sales.Module,
		analytics.Module,
		favorites.Module,
		cleanup.Module,
		scheduler.Module,
	).Run()
}
