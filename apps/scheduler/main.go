package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/booking"
	"github.com/smallbiznis/maidbook/internal/catalog"
	"github.com/smallbiznis/maidbook/internal/cleaner"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/customer"
	"github.com/smallbiznis/maidbook/internal/invoice"
	"github.com/smallbiznis/maidbook/internal/notification"
	"github.com/smallbiznis/maidbook/internal/observability"
	"github.com/smallbiznis/maidbook/internal/pricing"
	"github.com/smallbiznis/maidbook/internal/promo"
	"github.com/smallbiznis/maidbook/internal/providers"
	"github.com/smallbiznis/maidbook/internal/ratelimit"
	"github.com/smallbiznis/maidbook/internal/scheduler"
	"github.com/smallbiznis/maidbook/internal/timeslot"
	"github.com/smallbiznis/maidbook/pkg/db"
	"go.uber.org/fx"
)

// The worker runs only the background jobs; migrations belong to cmd/maidbook.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,
		providers.Module,
		notification.Module,

		// Domain services required by scheduler
		pricing.Module,
		catalog.Module,
		customer.Module,
		cleaner.Module,
		promo.Module,
		timeslot.Module,
		booking.Module,
		invoice.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
