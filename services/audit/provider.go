package audit

import (
	"github.com/trove-app/trove/services/logging"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewAuditService),
)

func NewAuditService(logger *logging.Service) *Service {
	return NewService(logger.Named("security"))
}
