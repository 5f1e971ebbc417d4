package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, promo *PromoCode) error
	Update(ctx context.Context, db *gorm.DB, promo *PromoCode) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PromoCode, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*PromoCode, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*PromoCode, error)

	// IncrementUsage bumps usage_count only while the code is active, not
	// expired at now, and under its global limit. It reports whether a row
	// was updated.
	IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	CountUsages(ctx context.Context, db *gorm.DB, promoID snowflake.ID, customerID string) (int64, error)
	InsertUsage(ctx context.Context, db *gorm.DB, usage *PromoCodeUsage) error
	ListUsages(ctx context.Context, db *gorm.DB, promoID snowflake.ID) ([]*PromoCodeUsage, error)
}
