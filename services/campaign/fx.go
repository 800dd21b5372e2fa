package campaign

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("campaign.service",
	fx.Provide(NewService, NewHandler),
	fx.Invoke(migrate, registerRoutes),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Campaign{}, &Participant{}, &SocialPost{}, &SocialLink{})
}

func registerRoutes(api *gin.RouterGroup, h *Handler) {
	h.RegisterRoutes(api)
}
