package middleware

import (
	"engage-controlplane/pkg/config"
	"engage-controlplane/pkg/errutil"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Actor carries the capability already established by the upstream gateway.
// The engine does not re-derive identity; it trusts these headers to have been
// validated before the request reaches it.
type Actor struct {
	Role   string
	OrgID  string
	UserID string
}

const actorContextKey = "engine.actor"

var Module = fx.Module("authz",
	fx.Provide(ProvideEnforcer),
)

func ProvideEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
}

// Authorize resolves the actor from gateway headers and enforces the casbin
// role -> route -> method policy before any engine logic runs.
func Authorize(enforcer *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor{
			Role:   c.GetHeader("X-Actor-Role"),
			OrgID:  c.GetHeader("X-Actor-Org"),
			UserID: c.GetHeader("X-Actor-User"),
		}
		if actor.Role == "" {
			_ = c.Error(errutil.Unauthorized("missing actor role"))
			c.Abort()
			return
		}

		allowed, err := enforcer.Enforce(actor.Role, c.FullPath(), c.Request.Method)
		if err != nil {
			_ = c.Error(errutil.Internal("authorization check failed", errutil.WithErr(err)))
			c.Abort()
			return
		}
		if !allowed {
			_ = c.Error(errutil.Forbidden("role is not allowed to perform this operation"))
			c.Abort()
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func ActorFromContext(c *gin.Context) Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(Actor); ok {
			return actor
		}
	}
	return Actor{}
}
