package audit

import (
	"fmt"

	"github.com/mileusna/useragent"
	"go.uber.org/zap"
)

// Event identifies a security-relevant occurrence. The set matches what the
// auth endpoints and the rate limiter can observe.
type Event string

const (
	LoginSuccess       Event = "login_success"
	LoginFailure       Event = "login_failure"
	Logout             Event = "logout"
	Register           Event = "register"
	TokenRefresh       Event = "token_refresh"
	TokenReuseDetected Event = "token_reuse_detected"
	RateLimitHit       Event = "rate_limit_hit"
)

type Entry struct {
	Event     Event
	UserID    string
	ClientIP  string
	UserAgent string
	Detail    string
}

// Service writes security events to a dedicated append-only log channel.
// Events go to a named zap logger so operators can route them separately
// from application logs.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

func (s *Service) Record(entry Entry) {
	if s == nil || s.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event", string(entry.Event)),
	}
	if entry.UserID != "" {
		fields = append(fields, zap.String("user_id", entry.UserID))
	}
	if entry.ClientIP != "" {
		fields = append(fields, zap.String("ip", entry.ClientIP))
	}
	if entry.UserAgent != "" {
		fields = append(fields,
			zap.String("user_agent", entry.UserAgent),
			zap.String("device", SummarizeUserAgent(entry.UserAgent)))
	}
	if entry.Detail != "" {
		fields = append(fields, zap.String("detail", entry.Detail))
	}

	s.logger.Info(string(entry.Event), fields...)
}

// SummarizeUserAgent reduces a raw User-Agent header to "client version / os"
// so audit entries stay greppable.
func SummarizeUserAgent(raw string) string {
	ua := useragent.Parse(raw)
	if ua.Name == "" {
		return "unknown"
	}

	summary := ua.Name
	if ua.Version != "" {
		summary = fmt.Sprintf("%s %s", ua.Name, ua.Version)
	}
	if ua.OS != "" {
		summary = fmt.Sprintf("%s / %s", summary, ua.OS)
	}
	return summary
}
