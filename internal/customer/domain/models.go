package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// GuestPrefix marks customer ids synthesized for unauthenticated bookings.
const GuestPrefix = "guest_"

// Customer is the profile of a registered user. Guests never get a row.
type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex" json:"user_id"`
	Email     string       `gorm:"type:varchar(255);not null;index" json:"email"`
	FirstName string       `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string       `gorm:"type:varchar(100)" json:"last_name"`
	Phone     string       `gorm:"type:varchar(32)" json:"phone"`
	Address   string       `gorm:"type:varchar(255)" json:"address"`
	City      string       `gorm:"type:varchar(100)" json:"city"`
	State     string       `gorm:"type:varchar(50)" json:"state"`
	ZipCode   string       `gorm:"type:varchar(20)" json:"zip_code"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerKey is the identity used by bookings and the promo ledger.
func (c Customer) CustomerKey() string {
	return c.UserID.String()
}

// GuestID derives the stable identity of a guest from their email.
func GuestID(email string) string {
	return GuestPrefix + strings.ToLower(strings.TrimSpace(email))
}

func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestPrefix)
}
