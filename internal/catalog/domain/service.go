package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/pkg/money"
)

type CreateServiceRequest struct {
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	IsALaCarte    bool          `json:"is_a_la_carte"`
	Price         *money.Amount `json:"price"`
	DurationHours *float64      `json:"duration_hours"`
}

type UpdateServiceRequest struct {
	Name          *string       `json:"name"`
	Category      *string       `json:"category"`
	Description   *string       `json:"description"`
	Price         *money.Amount `json:"price"`
	DurationHours *float64      `json:"duration_hours"`
	IsActive      *bool         `json:"is_active"`
}

type ListServiceRequest struct {
	ALaCarte       *bool
	Category       string
	IncludeArchive bool
}

type ListServiceFilter struct {
	ALaCarte   *bool
	Category   string
	ActiveOnly bool
}

type Service interface {
	Create(context.Context, CreateServiceRequest) (CleaningService, error)
	Update(ctx context.Context, id string, req UpdateServiceRequest) (CleaningService, error)
	Archive(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (CleaningService, error)
	List(context.Context, ListServiceRequest) ([]CleaningService, error)
	// FindByIDs resolves services by id, silently omitting unknown ids.
	FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]CleaningService, error)
	SeedDefaults(ctx context.Context) error
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrPriceNotAllowed = errors.New("invalid_price_not_allowed")
	ErrNotFound        = errors.New("service_not_found")
)
