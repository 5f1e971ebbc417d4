package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, svc *domain.CleaningService) error {
	return db.WithContext(ctx).Create(svc).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, svc *domain.CleaningService) error {
	return db.WithContext(ctx).Save(svc).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CleaningService, error) {
	var svc domain.CleaningService
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&svc).Error
	if err != nil {
		return nil, err
	}
	if svc.ID == 0 {
		return nil, nil
	}
	return &svc, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.CleaningService, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*domain.CleaningService
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListServiceFilter) ([]*domain.CleaningService, error) {
	stmt := db.WithContext(ctx).Model(&domain.CleaningService{})
	if filter.ALaCarte != nil {
		stmt = stmt.Where("is_a_la_carte = ?", *filter.ALaCarte)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}

	var items []*domain.CleaningService
	if err := stmt.Order("is_a_la_carte asc, name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.CleaningService{}).Count(&count).Error
	return count, err
}
