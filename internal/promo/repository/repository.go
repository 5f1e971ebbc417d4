package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/promo/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, promo *domain.PromoCode) error {
	return db.WithContext(ctx).Create(promo).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, promo *domain.PromoCode) error {
	return db.WithContext(ctx).Save(promo).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.PromoCode{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PromoCode, error) {
	var promo domain.PromoCode
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&promo).Error
	if err != nil {
		return nil, err
	}
	if promo.ID == 0 {
		return nil, nil
	}
	return &promo, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PromoCode, error) {
	var promo domain.PromoCode
	err := db.WithContext(ctx).Where("code = ?", code).Limit(1).Find(&promo).Error
	if err != nil {
		return nil, err
	}
	if promo.ID == 0 {
		return nil, nil
	}
	return &promo, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.PromoCode, error) {
	stmt := db.WithContext(ctx).Model(&domain.PromoCode{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	var items []*domain.PromoCode
	if err := stmt.Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.PromoCode{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Where("valid_until IS NULL OR valid_until >= ?", now).
		UpdateColumns(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) CountUsages(ctx context.Context, db *gorm.DB, promoID snowflake.ID, customerID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.PromoCodeUsage{}).
		Where("promo_code_id = ? AND customer_id = ?", promoID, customerID).
		Count(&count).Error
	return count, err
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, usage *domain.PromoCodeUsage) error {
	return db.WithContext(ctx).Create(usage).Error
}

func (r *repo) ListUsages(ctx context.Context, db *gorm.DB, promoID snowflake.ID) ([]*domain.PromoCodeUsage, error) {
	var items []*domain.PromoCodeUsage
	err := db.WithContext(ctx).
		Where("promo_code_id = ?", promoID).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
