package auth

import (
	"context"

	"github.com/smallbiznis/maidbook/internal/auth/domain"
	"github.com/smallbiznis/maidbook/internal/auth/repository"
	"github.com/smallbiznis/maidbook/internal/auth/service"
	"github.com/smallbiznis/maidbook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)

// BootstrapAdmin ensures the configured admin account exists.
func BootstrapAdmin(ctx context.Context, cfg config.Config, svc domain.Service, log *zap.Logger) error {
	if cfg.Bootstrap.AdminEmail == "" {
		return nil
	}
	if _, err := svc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		return err
	}
	log.Info("admin account ready", zap.String("email", cfg.Bootstrap.AdminEmail))
	return nil
}
