package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/fx"
)

var ErrInvalidCharge = errors.New("invalid_charge")

var Module = fx.Module("providers.payment",
	fx.Provide(NewMock),
)

type Charge struct {
	Reference   string
	Amount      money.Amount
	Description string
}

type Result struct {
	Success       bool
	TransactionID string
	ProcessedAt   time.Time
	FailureReason string
}

// Provider charges a customer for a booking.
type Provider interface {
	Charge(ctx context.Context, charge Charge) (Result, error)
}

// MockProvider approves every positive charge. It stands in for a card
// processor until one is integrated.
type MockProvider struct {
	clock clock.Clock
}

func NewMock(clk clock.Clock) Provider {
	return &MockProvider{clock: clk}
}

func (p *MockProvider) Charge(ctx context.Context, charge Charge) (Result, error) {
	if charge.Reference == "" {
		return Result{}, ErrInvalidCharge
	}
	if charge.Amount <= 0 {
		return Result{
			Success:       false,
			ProcessedAt:   p.clock.Now(),
			FailureReason: "amount_not_positive",
		}, nil
	}
	return Result{
		Success:       true,
		TransactionID: uuid.NewString(),
		ProcessedAt:   p.clock.Now(),
	}, nil
}
