package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/maidbook/pkg/db/pagination"
)

// LineItemInput is one cart entry as submitted.
type LineItemInput struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the typed booking payload.
type Cart struct {
	HouseSize           string          `json:"house_size"`
	Frequency           string          `json:"frequency"`
	Rooms               Rooms           `json:"rooms"`
	Services            []LineItemInput `json:"services"`
	ALaCarteServices    []LineItemInput `json:"a_la_carte_services"`
	BookingDate         string          `json:"booking_date"`
	TimeSlot            string          `json:"time_slot"`
	Address             *Address        `json:"address,omitempty"`
	SpecialInstructions string          `json:"special_instructions"`
	PromoCode           string          `json:"promo_code"`
}

// Contact is the submitted customer block. Guests must provide it; for
// registered users it refreshes the stored profile.
type Contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

// CreateBookingRequest carries either an authenticated UserID or a guest Contact.
type CreateBookingRequest struct {
	Cart    Cart
	UserID  string
	Contact *Contact
}

type ListBookingRequest struct {
	PageToken     string
	PageSize      int32
	Status        string
	PaymentStatus string
	CustomerID    string
	DateFrom      string
	DateTo        string
}

type ListBookingFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	CustomerID    string
	DateFrom      string
	DateTo        string
}

type ListBookingResponse struct {
	pagination.PageInfo
	Bookings []Booking `json:"bookings"`
}

type PaymentResult struct {
	Success       bool    `json:"success"`
	PaymentStatus string  `json:"payment_status"`
	TransactionID *string `json:"transaction_id"`
	Booking       Booking `json:"booking"`
}

type Service interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (Booking, error)

	GetByID(ctx context.Context, id string) (Booking, error)
	GetByReference(ctx context.Context, reference string) (Booking, error)
	List(ctx context.Context, req ListBookingRequest) (ListBookingResponse, error)
	ListForCustomer(ctx context.Context, customerID string, req ListBookingRequest) (ListBookingResponse, error)

	UpdateStatus(ctx context.Context, id string, status string) (Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, status string) (Booking, error)
	Cancel(ctx context.Context, id string) (Booking, error)
	ProcessPayment(ctx context.Context, id string) (PaymentResult, error)

	AssignCleaner(ctx context.Context, id, cleanerID string) (Booking, error)
	SyncCalendar(ctx context.Context, id string) (Booking, error)

	// SendReminders notifies customers booked on date and returns how many were sent.
	SendReminders(ctx context.Context, date string) (int, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrBookingDateInPast    = errors.New("invalid_booking_date_past")
	ErrContactRequired      = errors.New("invalid_customer")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrInvalidName          = errors.New("invalid_first_name")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidPaymentStatus = errors.New("invalid_payment_status")
	ErrStatusTransition     = errors.New("status_transition_not_allowed")
	ErrBookingClosed        = errors.New("booking_closed")
	ErrPaymentNotAllowed    = errors.New("payment_not_allowed")
	ErrCleanerUnavailable   = errors.New("cleaner_unavailable")
	ErrCleanerNotAssigned   = errors.New("cleaner_not_assigned")
	ErrNotFound             = errors.New("booking_not_found")
)
