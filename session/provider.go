package session

import (
	"github.com/trove-app/trove/config"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewTransportFx),
)

func NewTransportFx(cfg *config.Config) *Transport {
	return NewTransport(Config{
		Domain:        cfg.Auth.CookieDomain,
		Secure:        !cfg.Auth.IsDevelopment(),
		AccessMaxAge:  cfg.AccessToken.Expiry,
		RefreshMaxAge: cfg.RefreshToken.Expiry,
	})
}
