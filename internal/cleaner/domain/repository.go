package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cleaner *Cleaner) error
	Update(ctx context.Context, db *gorm.DB, cleaner *Cleaner) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Cleaner, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*Cleaner, error)
}
