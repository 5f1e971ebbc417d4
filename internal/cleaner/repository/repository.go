package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cleaner *domain.Cleaner) error {
	return db.WithContext(ctx).Create(cleaner).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, cleaner *domain.Cleaner) error {
	return db.WithContext(ctx).Save(cleaner).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Cleaner, error) {
	var cleaner domain.Cleaner
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&cleaner).Error
	if err != nil {
		return nil, err
	}
	if cleaner.ID == 0 {
		return nil, nil
	}
	return &cleaner, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.Cleaner, error) {
	stmt := db.WithContext(ctx).Model(&domain.Cleaner{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	var items []*domain.Cleaner
	if err := stmt.Order("name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
