package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/taskname"
)

const TaskScorePass = taskname.QualityScorePass

type ScorePassPayload struct {
	TriggeredBy string `json:"triggered_by"`
	CampaignID  string `json:"campaign_id,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
}

var TaskModule = fx.Module("task.quality",
	fx.Provide(NewTask),
)

type Task struct {
	svc *Service
}

func NewTask(svc *Service) *Task {
	return &Task{svc: svc}
}

func (t *Task) HandleScorePassTask(ctx context.Context, task *asynq.Task) error {
	var payload ScorePassPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("triggered_by", payload.TriggeredBy),
		zap.String("trace_id", payload.TraceID),
	)
	zapLog.Info("start score pass task")

	var err error
	if payload.CampaignID != "" {
		err = t.svc.ScoreCampaign(ctx, payload.CampaignID)
	} else {
		err = t.svc.RunScorePass(ctx)
	}
	if err != nil {
		zapLog.Error("score pass failed", zap.Error(err))
		return err
	}

	zapLog.Info("score pass task finished")
	return nil
}

type Scheduler struct {
	cfg   *config.Config
	asynq *asynq.Client
}

func NewScheduler(cfg *config.Config, client *asynq.Client) *Scheduler {
	return &Scheduler{cfg: cfg, asynq: client}
}

// StartScheduler runs the daily score pass enqueue loop for the lifetime of
// the worker process.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.run(ctx)
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started quality score scheduler")

	for {
		now := time.Now()
		next := nextRunTime(now, s.cfg.Engine.ScorePassHour, s.cfg.Engine.ScorePassMinute)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()
	zap.L().Info("[Scheduler] enqueueing daily score pass")

	payload, err := json.Marshal(ScorePassPayload{TriggeredBy: "scheduler"})
	if err != nil {
		zap.L().Error("[Scheduler] failed to build payload", zap.Error(err))
		return
	}

	if _, err := s.asynq.EnqueueContext(ctx, asynq.NewTask(TaskScorePass, payload)); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue score pass", zap.Error(err))
		return
	}

	zap.L().Info("[Scheduler] score pass enqueued",
		zap.Duration("duration", time.Since(start)),
	)
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
