package tokencodec

import (
	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/services/logging"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewCodecService),
)

func NewCodecService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg.Auth.SecretKey, logger)
}
