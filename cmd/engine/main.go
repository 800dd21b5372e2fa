package main

import (
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"engage-controlplane/internal/httpapi"
	"engage-controlplane/internal/server"
	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/db"
	"engage-controlplane/pkg/gen"
	"engage-controlplane/pkg/health"
	"engage-controlplane/pkg/lock"
	"engage-controlplane/pkg/logger"
	"engage-controlplane/pkg/middleware"
	"engage-controlplane/pkg/profiling"
	"engage-controlplane/pkg/redis"
	"engage-controlplane/pkg/sequence"
	"engage-controlplane/pkg/task"
	"engage-controlplane/services/campaign"
	"engage-controlplane/services/quality"
	"engage-controlplane/services/reward"
	"engage-controlplane/services/wallet"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		lock.Module,
		sequence.Module,
		gen.Module,
		middleware.Module,
		health.Module,
		profiling.Module,
		fx.Provide(
			provideTracerProvider,
			server.ProvideHTTPServer,
		),
		httpapi.Module,
		wallet.Module,
		campaign.Module,
		reward.Module,
		quality.Module,
		fx.Invoke(server.Run),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}
