package domain

import (
	"errors"

	"github.com/smallbiznis/maidbook/pkg/money"
)

// Service answers price and duration lookups. It never errors: unknown
// inputs resolve to documented defaults.
type Service interface {
	BasePrice(size HouseSize, freq Frequency) money.Amount
	BaseDuration(size HouseSize) float64
	UnitPrice(item Item, size HouseSize) money.Amount
	Quote(size HouseSize, freq Frequency) Quote
	Matrix() []Row
}

var (
	ErrInvalidHouseSize = errors.New("invalid_house_size")
	ErrInvalidFrequency = errors.New("invalid_frequency")
)
