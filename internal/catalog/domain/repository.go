package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, svc *CleaningService) error
	Update(ctx context.Context, db *gorm.DB, svc *CleaningService) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CleaningService, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*CleaningService, error)
	List(ctx context.Context, db *gorm.DB, filter ListServiceFilter) ([]*CleaningService, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
