package quality

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("quality.service",
	fx.Provide(NewService, NewHandler),
	fx.Invoke(migrate, registerRoutes),
)

// WorkerModule wires the score pass into the background worker: the asynq
// handler plus the daily scheduler that enqueues it.
var WorkerModule = fx.Module("quality.worker",
	fx.Provide(NewService, NewTask, NewScheduler),
	fx.Invoke(migrate, registerTaskHandlers, StartScheduler),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&QualityScore{})
}

func registerRoutes(api *gin.RouterGroup, h *Handler) {
	h.RegisterRoutes(api)
}

func registerTaskHandlers(mux *asynq.ServeMux, t *Task) {
	mux.HandleFunc(TaskScorePass, t.HandleScorePassTask)
}
