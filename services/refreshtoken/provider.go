package refreshtoken

import (
	"context"

	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/services/logging"
	"github.com/trove-app/trove/services/tokencodec"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(NewStoreFx),
	fx.Provide(NewRefreshTokenService),
	fx.Invoke(RunCleanupWorker),
)

func NewStoreFx(db *gorm.DB, logger *logging.Service) *Store {
	return NewStore(db, logger)
}

func NewRefreshTokenService(store *Store, codec *tokencodec.Service, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(store, codec, cfg, logger)
}

func RunCleanupWorker(lc fx.Lifecycle, service *Service, cfg *config.Config) {
	if cfg.RefreshToken.CleanupInterval <= 0 {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			service.StartCleanupWorker()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			service.StopCleanupWorker()
			return nil
		},
	})
}
