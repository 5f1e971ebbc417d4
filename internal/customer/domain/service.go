package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/maidbook/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Email       string
	Name        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerFilter struct {
	Email       string
	Name        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

// Profile carries contact fields. Empty fields leave stored values alone.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

type Service interface {
	// EnsureForUser returns the user's profile, creating or refreshing it.
	EnsureForUser(ctx context.Context, userID string, profile Profile) (Customer, error)
	UpdateProfile(ctx context.Context, userID string, profile Profile) (Customer, error)
	GetByUserID(ctx context.Context, userID string) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	Count(ctx context.Context) (int64, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("customer_not_found")
)
