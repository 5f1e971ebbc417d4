package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"
)

// TimeSlot is one bookable window on a calendar day.
type TimeSlot struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	SlotDate    string        `gorm:"type:varchar(10);not null;uniqueIndex:ux_time_slots_date_start,priority:1;index" json:"date"`
	StartTime   string        `gorm:"type:varchar(5);not null;uniqueIndex:ux_time_slots_date_start,priority:2" json:"start_time"`
	EndTime     string        `gorm:"type:varchar(5);not null" json:"end_time"`
	Label       string        `gorm:"type:varchar(16);not null" json:"time_slot"`
	IsAvailable bool          `gorm:"not null;index" json:"is_available"`
	BookingID   *snowflake.ID `json:"booking_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (TimeSlot) TableName() string { return "time_slots" }

// Window returns the absolute start and end of the slot in loc.
func (s TimeSlot) Window(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout+" "+HourLayout, s.SlotDate+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(DateLayout+" "+HourLayout, s.SlotDate+" "+s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// FormatLabel renders "08:00-10:00" for a start hour and a length in hours.
func FormatLabel(startHour, hours int) string {
	return fmt.Sprintf("%02d:00-%02d:00", startHour, startHour+hours)
}

// StartOf extracts the 24-hour start time from "08:00-10:00", "08:00" or
// "8:00 AM - 10:00 AM".
func StartOf(label string) (string, error) {
	start, _, _ := strings.Cut(strings.TrimSpace(label), "-")
	start = strings.ToUpper(strings.TrimSpace(start))
	for _, layout := range []string{HourLayout, "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Format(HourLayout), nil
		}
	}
	return "", ErrInvalidTimeSlot
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
