package wallet

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("wallet.service",
	fx.Provide(NewService, NewHandler),
	fx.Invoke(migrate, registerRoutes),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Wallet{}, &LedgerEntry{}, &PayoutRecord{})
}

func registerRoutes(api *gin.RouterGroup, h *Handler) {
	h.RegisterRoutes(api)
}
