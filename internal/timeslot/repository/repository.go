package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertMissing(ctx context.Context, db *gorm.DB, slots []*domain.TimeSlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	from, to := slots[0].SlotDate, slots[0].SlotDate
	for _, slot := range slots[1:] {
		if slot.SlotDate < from {
			from = slot.SlotDate
		}
		if slot.SlotDate > to {
			to = slot.SlotDate
		}
	}

	// RowsAffected counts skipped conflicts on some drivers, so the number
	// of new rows is taken from the range count before and after.
	var created int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := countBetween(tx, from, to)
		if err != nil {
			return err
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_date"}, {Name: "start_time"}},
			DoNothing: true,
		}).CreateInBatches(slots, 100).Error
		if err != nil {
			return err
		}
		after, err := countBetween(tx, from, to)
		if err != nil {
			return err
		}
		created = after - before
		return nil
	})
	return created, err
}

func countBetween(db *gorm.DB, from, to string) (int64, error) {
	var n int64
	err := db.Model(&domain.TimeSlot{}).
		Where("slot_date >= ? AND slot_date <= ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *repo) FindByStart(ctx context.Context, db *gorm.DB, date, start string) (*domain.TimeSlot, error) {
	var slot domain.TimeSlot
	err := db.WithContext(ctx).
		Where("slot_date = ? AND start_time = ?", date, start).
		Limit(1).
		Find(&slot).Error
	if err != nil {
		return nil, err
	}
	if slot.ID == 0 {
		return nil, nil
	}
	return &slot, nil
}

func (r *repo) ListByDate(ctx context.Context, db *gorm.DB, date string, onlyAvailable bool) ([]*domain.TimeSlot, error) {
	stmt := db.WithContext(ctx).Where("slot_date = ?", date)
	if onlyAvailable {
		stmt = stmt.Where("is_available = ?", true)
	}
	var items []*domain.TimeSlot
	if err := stmt.Order("start_time asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AvailableDates(ctx context.Context, db *gorm.DB, from, to string) ([]string, error) {
	var dates []string
	err := db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Distinct("slot_date").
		Where("is_available = ? AND slot_date >= ? AND slot_date <= ?", true, from, to).
		Order("slot_date asc").
		Pluck("slot_date", &dates).Error
	return dates, err
}

// Reserve flips an available slot to taken. The availability predicate makes
// the update a compare-and-swap: a second caller matches zero rows.
func (r *repo) Reserve(ctx context.Context, db *gorm.DB, date, start string, bookingID snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Where("slot_date = ? AND start_time = ? AND is_available = ?", date, start, true).
		UpdateColumns(map[string]any{
			"is_available": false,
			"booking_id":   bookingID,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, date, start string, bookingID snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Where("slot_date = ? AND start_time = ? AND booking_id = ?", date, start, bookingID).
		UpdateColumns(map[string]any{
			"is_available": true,
			"booking_id":   gorm.Expr("NULL"),
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) SetAvailability(ctx context.Context, db *gorm.DB, date, start string, available bool, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Where("slot_date = ? AND start_time = ? AND booking_id IS NULL", date, start).
		UpdateColumns(map[string]any{
			"is_available": available,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
