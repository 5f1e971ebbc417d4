package domain

import (
	"strings"

	"github.com/smallbiznis/maidbook/pkg/money"
)

// HouseSize is a square-footage bracket used as the pricing key.
type HouseSize string

const (
	HouseSize1000To1500 HouseSize = "1000-1500"
	HouseSize1500To2000 HouseSize = "1500-2000"
	HouseSize2000To2500 HouseSize = "2000-2500"
	HouseSize2500To3000 HouseSize = "2500-3000"
	HouseSize3000To3500 HouseSize = "3000-3500"
	HouseSize3500To4000 HouseSize = "3500-4000"
	HouseSize4000To4500 HouseSize = "4000-4500"
	HouseSize5000Plus   HouseSize = "5000+"
)

// HouseSizes lists every bracket in ascending order.
var HouseSizes = []HouseSize{
	HouseSize1000To1500,
	HouseSize1500To2000,
	HouseSize2000To2500,
	HouseSize2500To3000,
	HouseSize3000To3500,
	HouseSize3500To4000,
	HouseSize4000To4500,
	HouseSize5000Plus,
}

type Frequency string

const (
	FrequencyOneTime     Frequency = "one_time"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiWeekly    Frequency = "bi_weekly"
	FrequencyEvery3Weeks Frequency = "every_3_weeks"
	FrequencyMonthly     Frequency = "monthly"
)

var Frequencies = []Frequency{
	FrequencyOneTime,
	FrequencyWeekly,
	FrequencyBiWeekly,
	FrequencyEvery3Weeks,
	FrequencyMonthly,
}

func ParseHouseSize(raw string) (HouseSize, error) {
	value := HouseSize(strings.TrimSpace(raw))
	for _, size := range HouseSizes {
		if size == value {
			return size, nil
		}
	}
	return "", ErrInvalidHouseSize
}

func ParseFrequency(raw string) (Frequency, error) {
	value := Frequency(strings.ToLower(strings.TrimSpace(raw)))
	for _, freq := range Frequencies {
		if freq == value {
			return freq, nil
		}
	}
	return "", ErrInvalidFrequency
}

// Item is the pricing view of a catalog service.
type Item struct {
	Name  string
	Price *money.Amount
}

// Row is one bracket of the price matrix.
type Row struct {
	HouseSize     HouseSize                  `json:"house_size"`
	DurationHours float64                    `json:"duration_hours"`
	Prices        map[Frequency]money.Amount `json:"prices"`
}

// Quote is the base price and duration for a size and frequency pair.
type Quote struct {
	HouseSize     HouseSize    `json:"house_size"`
	Frequency     Frequency    `json:"frequency"`
	BasePrice     money.Amount `json:"base_price"`
	DurationHours float64      `json:"duration_hours"`
}
