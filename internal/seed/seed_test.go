package seed

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	catalogdomain.Service
	seeded int
}

func (f *fakeCatalog) SeedDefaults(context.Context) error {
	f.seeded++
	return nil
}

type fakeAuth struct {
	authdomain.Service
	admins []string
}

func (f *fakeAuth) EnsureAdmin(_ context.Context, email, _, _ string) (authdomain.User, error) {
	f.admins = append(f.admins, email)
	return authdomain.User{Email: email, Role: authdomain.RoleAdmin}, nil
}

type fakeSlots struct {
	timeslotdomain.Service
	from time.Time
	days int
}

func (f *fakeSlots) EnsureHorizon(_ context.Context, from time.Time, days int) (int64, error) {
	f.from = from
	f.days = days
	return int64(days * 5), nil
}

func newParams(cfg config.Config) (Params, *fakeCatalog, *fakeAuth, *fakeSlots) {
	catalog := &fakeCatalog{}
	auth := &fakeAuth{}
	slots := &fakeSlots{}
	return Params{
		Log:     zap.NewNop(),
		Config:  cfg,
		Clock:   clock.NewFakeClock(time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)),
		Catalog: catalog,
		Auth:    auth,
		Slots:   slots,
	}, catalog, auth, slots
}

func TestRunSeedsCatalogAndAdmin(t *testing.T) {
	cfg := config.Config{Timezone: "America/Chicago"}
	cfg.Bootstrap.SeedCatalog = true
	cfg.Bootstrap.AdminEmail = "owner@example.com"
	cfg.Scheduler.Enabled = true

	p, catalog, auth, slots := newParams(cfg)
	require.NoError(t, Run(context.Background(), p))

	assert.Equal(t, 1, catalog.seeded)
	assert.Equal(t, []string{"owner@example.com"}, auth.admins)
	assert.Zero(t, slots.days, "scheduler owns the horizon when enabled")
}

func TestRunFillsHorizonWithoutScheduler(t *testing.T) {
	cfg := config.Config{Timezone: "America/Chicago"}
	cfg.Slots.HorizonDays = 14

	p, catalog, auth, slots := newParams(cfg)
	require.NoError(t, Run(context.Background(), p))

	assert.Zero(t, catalog.seeded)
	assert.Empty(t, auth.admins)
	assert.Equal(t, 14, slots.days)
	// 03:00 UTC is still the previous day in Chicago.
	assert.Equal(t, "2025-06-14", slots.from.Format(timeslotdomain.DateLayout))
}

func TestRunRequiresDependencies(t *testing.T) {
	assert.Error(t, Run(context.Background(), Params{}))
}
