package wallet

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
	g.GET("/wallets/:id", h.getWallet)
	g.GET("/wallets/:id/entries", h.listEntries)
	g.GET("/wallets/:id/verify", h.verifyChain)
	g.POST("/wallets/:id/debit", h.debit)
	g.GET("/users/:id/wallet", h.getUserWallet)
	g.GET("/payouts/:receiptId", h.getPayout)
}

func (h *Handler) getWallet(c *gin.Context) {
	w, err := h.svc.GetWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) getUserWallet(c *gin.Context) {
	w, err := h.svc.GetWalletForOwner(c.Request.Context(), OwnerTypeUser, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) listEntries(c *gin.Context) {
	items, err := h.svc.ListEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

func (h *Handler) verifyChain(c *gin.Context) {
	ok, brokenAt, err := h.svc.VerifyChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	resp := gin.H{"valid": ok}
	if !ok {
		resp["brokenAt"] = brokenAt
	}
	c.JSON(http.StatusOK, resp)
}

type debitRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"referenceId"`
	Description string          `json:"description"`
}

func (h *Handler) debit(c *gin.Context) {
	var req debitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	entry, err := h.svc.Debit(c.Request.Context(), MovementInput{
		WalletID:    c.Param("id"),
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) getPayout(c *gin.Context) {
	record, err := h.svc.GetPayout(c.Request.Context(), c.Param("receiptId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}
