package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/trove-app/trove/services/audit"
	"github.com/trove-app/trove/services/logging"
	"github.com/trove-app/trove/services/refreshtoken"
	"github.com/trove-app/trove/session"
	"go.uber.org/zap"
)

// User is the minimal identity view the refresh endpoint needs.
type User struct {
	ID       string
	IsActive bool
}

// UserResolver is the capability the surrounding user-management layer
// provides. The refresh core never depends on a concrete user model.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (*User, error)
}

// AccessTokenIssuer mints the short-lived access token that rotation
// re-issues alongside the new refresh token.
type AccessTokenIssuer interface {
	IssueAccessToken(ctx context.Context, userID string) (string, error)
}

type Handler struct {
	tokens    *refreshtoken.Service
	transport *session.Transport
	users     UserResolver
	access    AccessTokenIssuer
	logger    *logging.Service
	audit     *audit.Service
}

func NewHandler(tokens *refreshtoken.Service, transport *session.Transport, users UserResolver, access AccessTokenIssuer, logger *logging.Service, auditSvc *audit.Service) *Handler {
	return &Handler{
		tokens:    tokens,
		transport: transport,
		users:     users,
		access:    access,
		logger:    logger,
		audit:     auditSvc,
	}
}

// Refresh rotates the presented refresh token and re-issues both cookies.
// Invalid and Reused produce identical responses; only the audit log tells
// them apart.
func (h *Handler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	presented := session.RefreshTokenFromRequest(c)
	if presented == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing refresh token")
	}

	result, err := h.tokens.ValidateAndRotate(ctx, presented)
	if err != nil {
		h.logger.Error("refresh token rotation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	switch result.Status {
	case refreshtoken.StatusReused:
		h.audit.Record(audit.Entry{
			Event:     audit.TokenReuseDetected,
			UserID:    result.UserID,
			ClientIP:  c.RealIP(),
			UserAgent: c.Request().UserAgent(),
			Detail:    "family revoked: " + result.Family,
		})
		h.transport.ClearRefreshCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")

	case refreshtoken.StatusInvalid:
		h.audit.Record(audit.Entry{
			Event:     audit.TokenRefresh,
			ClientIP:  c.RealIP(),
			UserAgent: c.Request().UserAgent(),
			Detail:    "refresh failed: invalid token",
		})
		h.transport.ClearRefreshCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	user, err := h.users.ResolveUser(ctx, result.UserID)
	if err != nil {
		h.logger.Error("failed to resolve user during refresh",
			zap.Error(err),
			zap.String("user_id", result.UserID))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	if user == nil || !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	accessToken, err := h.access.IssueAccessToken(ctx, result.UserID)
	if err != nil {
		h.logger.Error("failed to issue access token during refresh",
			zap.Error(err),
			zap.String("user_id", result.UserID))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	h.transport.SetAccessCookie(c, accessToken)
	h.transport.SetRefreshCookie(c, result.NewToken)

	h.audit.Record(audit.Entry{
		Event:     audit.TokenRefresh,
		UserID:    result.UserID,
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Detail:    "refresh succeeded",
	})

	return c.NoContent(http.StatusNoContent)
}

// Logout revokes the presented token's family and clears both cookies. It
// never fails for the caller: a missing or garbled cookie, even a store
// outage, still yields 204.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	detail := "no refresh token cookie"

	if presented := session.RefreshTokenFromRequest(c); presented != "" {
		family, err := h.tokens.RevokeByPresentedToken(ctx, presented)
		switch {
		case err != nil:
			h.logger.Error("failed to revoke token family during logout", zap.Error(err))
			detail = "family revocation failed"
		case family == "":
			detail = "refresh token decode failed"
		default:
			detail = "revoked token family " + family
		}
	}

	h.audit.Record(audit.Entry{
		Event:     audit.Logout,
		ClientIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Detail:    detail,
	})

	h.transport.ClearAccessCookie(c)
	h.transport.ClearRefreshCookie(c)

	return c.NoContent(http.StatusNoContent)
}
