package reward

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"engage-controlplane/pkg/errutil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/campaigns/:id/audit-report", h.auditReport)
	g.POST("/campaigns/:id/distribute", h.distribute)
	g.POST("/campaigns/:id/distribute-tier", h.distributeTier)
}

func (h *Handler) auditReport(c *gin.Context) {
	report, err := h.svc.GenerateAuditReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type distributeRequest struct {
	RejectedIDs []string `json:"rejectedIds"`
}

func (h *Handler) distribute(c *gin.Context) {
	var req distributeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := h.svc.DistributeRewards(c.Request.Context(), c.Param("id"), req.RejectedIDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) distributeTier(c *gin.Context) {
	result, err := h.svc.DistributeTierPool(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
