package quality

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"

	"engage-controlplane/pkg/errutil"
	"engage-controlplane/pkg/middleware"
	"engage-controlplane/pkg/task"
)

type Handler struct {
	svc      *Service
	enqueuer task.Enqueuer
}

func NewHandler(svc *Service, enqueuer task.Enqueuer) *Handler {
	return &Handler{svc: svc, enqueuer: enqueuer}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/quality/score-pass", h.enqueueScorePass)
	g.GET("/participants/:id/quality-score", h.getParticipantScore)
	g.GET("/campaigns/:id/quality-scores", h.listCampaignScores)
}

type scorePassRequest struct {
	CampaignID string `json:"campaignId"`
}

// enqueueScorePass hands the scoring work to the background worker rather
// than blocking an API request on a full statistical pass.
func (h *Handler) enqueueScorePass(c *gin.Context) {
	var req scorePassRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	actor := middleware.ActorFromContext(c)
	span := trace.SpanFromContext(c.Request.Context())

	payload, err := json.Marshal(ScorePassPayload{
		TriggeredBy: actor.UserID,
		CampaignID:  req.CampaignID,
		TraceID:     span.SpanContext().TraceID().String(),
	})
	if err != nil {
		c.Error(errutil.Internal("failed to build task payload", errutil.WithErr(err)))
		return
	}

	info, err := h.enqueuer.Enqueue(asynq.NewTask(TaskScorePass, payload))
	if err != nil {
		c.Error(errutil.Internal("failed to enqueue score pass", errutil.WithErr(err)))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"taskId": info.ID, "queue": info.Queue})
}

func (h *Handler) getParticipantScore(c *gin.Context) {
	score, err := h.svc.GetParticipantScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *Handler) listCampaignScores(c *gin.Context) {
	items, err := h.svc.ListCampaignScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": items})
}
