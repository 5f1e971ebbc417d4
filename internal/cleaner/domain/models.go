package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Cleaner struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:varchar(200);not null" json:"name"`
	Email      string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone      string       `gorm:"type:varchar(32)" json:"phone"`
	CalendarID string       `gorm:"type:varchar(255)" json:"calendar_id"`
	IsActive   bool         `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Cleaner) TableName() string { return "cleaners" }

// Calendar returns the calendar to schedule against, defaulting to the email.
func (c Cleaner) Calendar() string {
	if c.CalendarID != "" {
		return c.CalendarID
	}
	return c.Email
}
