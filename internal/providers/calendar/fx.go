package calendar

import (
	"github.com/smallbiznis/maidbook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.calendar",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	switch cfg.Calendar.Provider {
	case "noop", "none":
		return &NoOpProvider{}
	case "memory", "":
		return NewMemory()
	default:
		log.Warn("unknown calendar provider, using memory", zap.String("provider", cfg.Calendar.Provider))
		return NewMemory()
	}
}
