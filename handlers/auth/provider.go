package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/middleware/ratelimit"
	"github.com/trove-app/trove/server"
	"github.com/trove-app/trove/services/audit"
	"github.com/trove-app/trove/services/logging"
	"github.com/trove-app/trove/services/refreshtoken"
	"github.com/trove-app/trove/services/tokencodec"
	"github.com/trove-app/trove/session"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewAccessTokenIssuer),
	fx.Provide(NewAuthHandler),
	fx.Invoke(RegisterRoutes),
)

// codecAccessIssuer mints access tokens with the shared codec under the
// access audience. Deployments with a separate auth backend substitute their
// own AccessTokenIssuer.
type codecAccessIssuer struct {
	codec  *tokencodec.Service
	expiry time.Duration
}

func (i *codecAccessIssuer) IssueAccessToken(_ context.Context, userID string) (string, error) {
	return i.codec.Encode(userID, uuid.NewString(), "", tokencodec.AccessAudience, i.expiry)
}

func NewAccessTokenIssuer(codec *tokencodec.Service, cfg *config.Config) AccessTokenIssuer {
	return &codecAccessIssuer{
		codec:  codec,
		expiry: cfg.AccessToken.Expiry,
	}
}

func NewAuthHandler(tokens *refreshtoken.Service, transport *session.Transport, users UserResolver, access AccessTokenIssuer, logger *logging.Service, auditSvc *audit.Service) *Handler {
	return NewHandler(tokens, transport, users, access, logger, auditSvc)
}

func RegisterRoutes(srv *server.Server, handler *Handler, store ratelimit.Store, cfg *config.Config, auditSvc *audit.Service) {
	group := srv.Group("/auth")

	if cfg.RateLimit.Enabled {
		group.Use(ratelimit.Middleware(&ratelimit.Config{
			Store:  store,
			Rate:   cfg.RateLimit.Rate,
			Period: cfg.RateLimit.Period,
			Audit:  auditSvc,
		}))
	}

	group.POST("/refresh", handler.Refresh)
	group.POST("/logout", handler.Logout)
}
