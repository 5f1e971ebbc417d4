// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/pkg/money"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusVoid},
}

func ParseStatus(raw string) (InvoiceStatus, error) {
	switch s := InvoiceStatus(raw); s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Invoice is issued once per completed booking.
type Invoice struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceNumber    string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	Sequence         int64         `gorm:"not null;uniqueIndex" json:"-"`
	BookingID        snowflake.ID  `gorm:"not null;uniqueIndex" json:"booking_id"`
	BookingReference string        `gorm:"type:varchar(26);not null" json:"booking_reference"`
	CustomerID       string        `gorm:"type:varchar(320);not null;index" json:"customer_id"`
	CustomerName     string        `gorm:"type:varchar(200)" json:"customer_name"`
	CustomerEmail    string        `gorm:"type:varchar(255)" json:"customer_email"`
	BillToAddress    string        `gorm:"type:text" json:"bill_to_address"`
	ServiceDate      string        `gorm:"type:varchar(10)" json:"service_date"`
	Status           InvoiceStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	SubtotalAmount   money.Amount  `gorm:"column:subtotal_cents;not null" json:"subtotal_amount"`
	TaxRateBps       int64         `gorm:"not null" json:"tax_rate_bps"`
	TaxAmount        money.Amount  `gorm:"column:tax_cents;not null" json:"tax_amount"`
	TotalAmount      money.Amount  `gorm:"column:total_cents;not null" json:"total_amount"`
	IssuedAt         time.Time     `gorm:"not null" json:"issued_at"`
	DueAt            time.Time     `gorm:"not null;index" json:"due_at"`
	SentAt           *time.Time    `json:"sent_at,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	VoidedAt         *time.Time    `json:"voided_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Items            []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice. Discounts are negative lines.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"-"`
	Position    int          `gorm:"not null" json:"position"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
	UnitAmount  money.Amount `gorm:"column:unit_amount_cents;not null" json:"unit_amount"`
	Amount      money.Amount `gorm:"column:amount_cents;not null" json:"amount"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
