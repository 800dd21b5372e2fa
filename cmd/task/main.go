package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/db"
	"engage-controlplane/pkg/gen"
	"engage-controlplane/pkg/logger"
	"engage-controlplane/pkg/profiling"
	"engage-controlplane/pkg/redis"
	"engage-controlplane/pkg/task"
	"engage-controlplane/services/quality"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		gen.Module,
		profiling.Module,
		quality.WorkerModule,
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
