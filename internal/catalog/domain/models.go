package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/pkg/money"
)

// CleaningService is a catalog entry. Standard services are bundled into the base
// price; à-la-carte services carry their own flat price.
type CleaningService struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"not null" json:"name"`
	Slug          string        `gorm:"not null;index" json:"slug"`
	Category      string        `gorm:"not null;default:'cleaning'" json:"category"`
	Description   string        `gorm:"not null;default:''" json:"description"`
	IsALaCarte    bool          `gorm:"column:is_a_la_carte;not null;default:false;index" json:"is_a_la_carte"`
	Price         *money.Amount `gorm:"column:price_cents" json:"price,omitempty"`
	DurationHours *float64      `gorm:"column:duration_hours" json:"duration_hours,omitempty"`
	IsActive      bool          `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CleaningService) TableName() string { return "services" }
