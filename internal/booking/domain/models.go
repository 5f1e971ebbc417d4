package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pricing "github.com/smallbiznis/maidbook/internal/pricing/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPaid, PaymentPending},
	PaymentPaid:    {PaymentRefunded},
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch s := PaymentStatus(raw); s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return s, nil
	}
	return "", ErrInvalidPaymentStatus
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rooms records which rooms the customer wants cleaned.
type Rooms struct {
	MasterBedroom      bool `json:"masterBedroom"`
	MasterBathroom     bool `json:"masterBathroom"`
	OtherBedrooms      int  `json:"otherBedrooms"`
	OtherFullBathrooms int  `json:"otherFullBathrooms"`
	HalfBathrooms      int  `json:"halfBathrooms"`
	DiningRoom         bool `json:"diningRoom"`
	Kitchen            bool `json:"kitchen"`
	LivingRoom         bool `json:"livingRoom"`
	MediaRoom          bool `json:"mediaRoom"`
	GameRoom           bool `json:"gameRoom"`
	Office             bool `json:"office"`
}

type Address struct {
	Street  string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.ZipCode == ""
}

// LineItem is the priced snapshot of a cart entry at booking time.
type LineItem struct {
	ServiceID  snowflake.ID `json:"service_id"`
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	UnitPrice  money.Amount `json:"unit_price"`
	Amount     money.Amount `json:"amount"`
	IsALaCarte bool         `json:"is_a_la_carte"`
}

// Booking is a priced, slot-reserved cleaning visit. CustomerID is the user
// id for registered customers and guest_<email> for guests.
type Booking struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	Reference     string        `gorm:"type:varchar(26);not null;uniqueIndex" json:"reference"`
	CustomerID    string        `gorm:"type:varchar(320);not null;index" json:"customer_id"`
	UserID        *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	IsGuest       bool          `gorm:"not null;default:false" json:"is_guest"`
	CustomerName  string        `gorm:"type:varchar(200)" json:"customer_name"`
	CustomerEmail string        `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerPhone string        `gorm:"type:varchar(32)" json:"customer_phone"`

	Address   datatypes.JSONType[Address]   `json:"address"`
	HouseSize pricing.HouseSize             `gorm:"type:varchar(16);not null" json:"house_size"`
	Frequency pricing.Frequency             `gorm:"type:varchar(16);not null" json:"frequency"`
	Rooms     datatypes.JSONType[Rooms]     `json:"rooms"`
	Items     datatypes.JSONSlice[LineItem] `json:"items"`

	BookingDate string `gorm:"type:varchar(10);not null;index" json:"booking_date"`
	TimeSlot    string `gorm:"type:varchar(16);not null" json:"time_slot"`

	BasePrice      money.Amount  `gorm:"column:base_price_cents;not null" json:"base_price"`
	ALaCarteTotal  money.Amount  `gorm:"column:a_la_carte_cents;not null" json:"a_la_carte_total"`
	Subtotal       money.Amount  `gorm:"column:subtotal_cents;not null" json:"subtotal"`
	DiscountAmount money.Amount  `gorm:"column:discount_cents;not null" json:"discount_amount"`
	TotalAmount    money.Amount  `gorm:"column:total_cents;not null" json:"total_amount"`
	PromoCode      *string       `gorm:"type:varchar(32)" json:"promo_code,omitempty"`
	PromoCodeID    *snowflake.ID `json:"promo_code_id,omitempty"`

	EstimatedDurationHours int `gorm:"not null" json:"estimated_duration_hours"`

	Status        Status        `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;index" json:"payment_status"`
	TransactionID *string       `gorm:"type:varchar(64)" json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	SpecialInstructions string        `gorm:"type:text" json:"special_instructions,omitempty"`
	CleanerID           *snowflake.ID `gorm:"index" json:"cleaner_id,omitempty"`
	CalendarEventID     *string       `gorm:"type:varchar(255)" json:"calendar_event_id,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }
