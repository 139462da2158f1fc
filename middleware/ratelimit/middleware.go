package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/trove-app/trove/services/audit"
)

// Config for a fixed-window limiter on the auth endpoints. Every attempt
// counts, successful or not: refresh probing is exactly the traffic this
// exists to slow down.
type Config struct {
	Store        Store
	Rate         int
	Period       time.Duration
	KeyGenerator func(c echo.Context) string
	Audit        *audit.Service
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			now := time.Now()
			resetTime := now.Add(cfg.Period)

			count, existingResetTime, exists := cfg.Store.Get(key)
			if exists {
				resetTime = existingResetTime
			}

			if count >= cfg.Rate {
				setHeaders(c, cfg.Rate, 0, resetTime)

				cfg.Audit.Record(audit.Entry{
					Event:     audit.RateLimitHit,
					ClientIP:  c.RealIP(),
					UserAgent: c.Request().UserAgent(),
					Detail:    c.Path(),
				})

				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}

			newCount := cfg.Store.Increment(key, resetTime)
			setHeaders(c, cfg.Rate, max(cfg.Rate-newCount, 0), resetTime)

			return next(c)
		}
	}
}

func DefaultKeyGenerator(c echo.Context) string {
	return c.RealIP()
}

func setHeaders(c echo.Context, limit, remaining int, resetTime time.Time) {
	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
}
