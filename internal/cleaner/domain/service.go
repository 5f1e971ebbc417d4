package domain

import (
	"context"
	"errors"
)

type CreateCleanerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	CalendarID string `json:"calendar_id"`
}

type UpdateCleanerRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	CalendarID *string `json:"calendar_id"`
	IsActive   *bool   `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, req CreateCleanerRequest) (Cleaner, error)
	Update(ctx context.Context, id string, req UpdateCleanerRequest) (Cleaner, error)
	Deactivate(ctx context.Context, id string) (Cleaner, error)
	GetByID(ctx context.Context, id string) (Cleaner, error)
	List(ctx context.Context, activeOnly bool) ([]Cleaner, error)
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrEmailExists  = errors.New("cleaner_email_exists")
	ErrNotFound     = errors.New("cleaner_not_found")
	ErrInactive     = errors.New("cleaner_inactive")
)
