package ratelimit

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)

func ProvideRateLimitStore() Store {
	return NewMemoryStore()
}
