package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/audit"
	"github.com/smallbiznis/maidbook/internal/auth"
	"github.com/smallbiznis/maidbook/internal/authorization"
	"github.com/smallbiznis/maidbook/internal/booking"
	"github.com/smallbiznis/maidbook/internal/catalog"
	"github.com/smallbiznis/maidbook/internal/cleaner"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/customer"
	"github.com/smallbiznis/maidbook/internal/invoice"
	"github.com/smallbiznis/maidbook/internal/migration"
	"github.com/smallbiznis/maidbook/internal/notification"
	"github.com/smallbiznis/maidbook/internal/observability"
	"github.com/smallbiznis/maidbook/internal/pricing"
	"github.com/smallbiznis/maidbook/internal/promo"
	"github.com/smallbiznis/maidbook/internal/providers"
	"github.com/smallbiznis/maidbook/internal/ratelimit"
	"github.com/smallbiznis/maidbook/internal/report"
	"github.com/smallbiznis/maidbook/internal/scheduler"
	"github.com/smallbiznis/maidbook/internal/seed"
	"github.com/smallbiznis/maidbook/internal/server"
	"github.com/smallbiznis/maidbook/internal/timeslot"
	"github.com/smallbiznis/maidbook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		providers.Module,
		notification.Module,

		// Functional Domains
		pricing.Module,
		catalog.Module,
		customer.Module,
		cleaner.Module,
		promo.Module,
		timeslot.Module,
		booking.Module,
		invoice.Module,
		report.Module,
		audit.Module,
		auth.Module,
		authorization.Module,

		seed.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
