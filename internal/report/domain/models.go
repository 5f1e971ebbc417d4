package domain

import "github.com/smallbiznis/maidbook/pkg/money"

type Stats struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
	PendingOrders int64            `json:"pending_orders"`
	Revenue       money.Amount     `json:"revenue"`
	Customers     int64            `json:"customers"`
}

// DayBucket aggregates bookings by service date.
type DayBucket struct {
	Date          string       `json:"date"`
	Bookings      int64        `json:"bookings"`
	Completed     int64        `json:"completed"`
	Cancellations int64        `json:"cancellations"`
	Revenue       money.Amount `json:"revenue"`
}

type PeriodReport struct {
	Period         string       `json:"period"`
	From           string       `json:"from"`
	To             string       `json:"to"`
	TotalBookings  int64        `json:"total_bookings"`
	Completed      int64        `json:"completed"`
	Cancellations  int64        `json:"cancellations"`
	Revenue        money.Amount `json:"revenue"`
	CompletionRate float64      `json:"completion_rate"`
	Days           []DayBucket  `json:"days"`
}

// StatusTotal is one row of the status rollup.
type StatusTotal struct {
	Status  string
	Count   int64
	Revenue int64
}

type DayTotal struct {
	BookingDate   string
	Bookings      int64
	Completed     int64
	Cancellations int64
	Revenue       int64
}
