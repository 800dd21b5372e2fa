package httpapi

import (
	"net/http"

	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/health"
	"engage-controlplane/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		ProvideRouter,
		ProvideAPIGroup,
		ProvideHandler,
	),
	fx.Invoke(registerHealthRoutes),
)

// ProvideRouter builds the shared gin engine.
func ProvideRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Error())

	return router
}

// ProvideAPIGroup is the authorised /v1 group service packages attach their
// routes to via fx.Invoke in their own modules.
func ProvideAPIGroup(router *gin.Engine, enforcer *casbin.Enforcer) *gin.RouterGroup {
	v1 := router.Group("/v1")
	v1.Use(middleware.Authorize(enforcer))
	return v1
}

// ProvideHandler exposes the gin engine as a plain http.Handler for the server.
func ProvideHandler(router *gin.Engine) http.Handler {
	return router
}

func registerHealthRoutes(router *gin.Engine, svc health.HealthService) {
	router.GET("/healthz", svc.Liveness)
	router.GET("/readyz", svc.Readiness)
}
