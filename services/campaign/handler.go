package campaign

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"engage-controlplane/pkg/errutil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/campaigns", h.createCampaign)
	g.GET("/campaigns", h.listCampaigns)
	g.GET("/campaigns/:id", h.getCampaign)
	g.PATCH("/campaigns/:id", h.updateCampaign)
	g.DELETE("/campaigns/:id", h.deleteCampaign)
	g.GET("/campaigns/:id/tier", h.getCampaignTier)
	g.POST("/campaigns/:id/participants", h.joinCampaign)
	g.GET("/campaigns/:id/participants", h.listParticipants)
	g.DELETE("/campaigns/:id/participants/:participantId", h.withdrawParticipant)
	g.POST("/participants/:id/actions", h.trackAction)
	g.POST("/participants/:id/posts", h.recordSocialPost)
	g.PUT("/users/:id/social-links/:platform", h.upsertSocialLink)
}

type createCampaignRequest struct {
	OrgID       string          `json:"orgId" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	CoiinTotal  decimal.Decimal `json:"coiinTotal"`
	Algorithm   Algorithm       `json:"algorithm"`
}

func (h *Handler) createCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	campaign, err := h.svc.CreateCampaign(c.Request.Context(), CreateCampaignInput{
		OrgID:       req.OrgID,
		Name:        req.Name,
		Description: req.Description,
		CoiinTotal:  req.CoiinTotal,
		Algorithm:   req.Algorithm,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) listCampaigns(c *gin.Context) {
	items, err := h.svc.ListCampaigns(c.Request.Context(), c.Query("orgId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": items})
}

func (h *Handler) getCampaign(c *gin.Context) {
	campaign, err := h.svc.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type updateCampaignRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Status      *CampaignStatus `json:"status"`
	Algorithm   *Algorithm      `json:"algorithm"`
}

func (h *Handler) updateCampaign(c *gin.Context) {
	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	campaign, err := h.svc.UpdateCampaign(c.Request.Context(), c.Param("id"), UpdateCampaignInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Algorithm:   req.Algorithm,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) deleteCampaign(c *gin.Context) {
	if err := h.svc.DeleteCampaign(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getCampaignTier(c *gin.Context) {
	status, err := h.svc.GetCampaignTier(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type joinCampaignRequest struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email"`
}

func (h *Handler) joinCampaign(c *gin.Context) {
	var req joinCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	p, err := h.svc.JoinCampaign(c.Request.Context(), c.Param("id"), JoinCampaignInput{
		UserID: req.UserID,
		Email:  req.Email,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) listParticipants(c *gin.Context) {
	items, err := h.svc.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": items})
}

func (h *Handler) withdrawParticipant(c *gin.Context) {
	if err := h.svc.WithdrawParticipant(c.Request.Context(), c.Param("id"), c.Param("participantId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type trackActionRequest struct {
	Action ActionType `json:"action" binding:"required"`
}

func (h *Handler) trackAction(c *gin.Context) {
	var req trackActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	p, err := h.svc.TrackAction(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type socialPostRequest struct {
	Platform string `json:"platform" binding:"required"`
	Likes    int64  `json:"likes"`
	Shares   int64  `json:"shares"`
	Comments int64  `json:"comments"`
}

func (h *Handler) recordSocialPost(c *gin.Context) {
	var req socialPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	post, err := h.svc.RecordSocialPost(c.Request.Context(), c.Param("id"), SocialPostInput{
		Platform: req.Platform,
		Likes:    req.Likes,
		Shares:   req.Shares,
		Comments: req.Comments,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

type socialLinkRequest struct {
	FollowerCount int64 `json:"followerCount"`
}

func (h *Handler) upsertSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	link, err := h.svc.UpsertSocialLink(c.Request.Context(), c.Param("id"), c.Param("platform"), req.FollowerCount)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, link)
}
