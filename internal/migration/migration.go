package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/maidbook/internal/audit/domain"
	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/maidbook/internal/invoice/domain"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"gorm.io/gorm"
)

// Models lists every table owned by the application, in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&customerdomain.Customer{},
		&catalogdomain.CleaningService{},
		&promodomain.PromoCode{},
		&promodomain.PromoCodeUsage{},
		&timeslotdomain.TimeSlot{},
		&cleanerdomain.Cleaner{},
		&bookingdomain.Booking{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&auditdomain.AuditLog{},
	}
}

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; mysql and sqlite fall back to gorm's AutoMigrate.
func Migrate(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "postgres", "":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	default:
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	source, err := newSource()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func newSource() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return source, nil
}
