// Package seed prepares reference data on startup: the default service
// catalog, the bootstrap admin account and, when no scheduler runs in this
// process, the initial time-slot horizon.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/maidbook/internal/auth"
	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(func(p Params) error {
		return Run(context.Background(), p)
	}),
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Clock   clock.Clock
	Catalog catalogdomain.Service
	Auth    authdomain.Service
	Slots   timeslotdomain.Service
}

func Run(ctx context.Context, p Params) error {
	if p.Log == nil || p.Catalog == nil || p.Auth == nil || p.Slots == nil || p.Clock == nil {
		return errors.New("seed dependencies are required")
	}
	log := p.Log.Named("seed")

	if p.Config.Bootstrap.SeedCatalog {
		if err := p.Catalog.SeedDefaults(ctx); err != nil {
			return err
		}
		log.Info("default catalog ensured")
	}

	if err := auth.BootstrapAdmin(ctx, p.Config, p.Auth, log); err != nil {
		return err
	}

	// The scheduler fills the horizon on boot; without it nothing else would.
	if !p.Config.Scheduler.Enabled {
		loc := p.Config.Location()
		now := p.Clock.Now().In(loc)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		created, err := p.Slots.EnsureHorizon(ctx, today, p.Config.Slots.HorizonDays)
		if err != nil {
			return err
		}
		log.Info("time slots ensured", zap.Int64("created", created))
	}
	return nil
}
