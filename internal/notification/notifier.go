// Package notification sends customer-facing booking and invoice messages
// over email and SMS.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/providers/email"
	"github.com/smallbiznis/maidbook/internal/providers/sms"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type BookingNotice struct {
	Reference     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	BookingDate   string
	TimeSlot      string
	HouseSize     string
	Frequency     string
	DurationHours int
	Discount      money.Amount
	Total         money.Amount
}

type InvoiceNotice struct {
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	Total         money.Amount
	DueDate       string
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, notice BookingNotice) error
	BookingReminder(ctx context.Context, notice BookingNotice) error
	InvoiceIssued(ctx context.Context, notice InvoiceNotice) error
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Email  email.Provider
	SMS    sms.Provider
}

type Service struct {
	businessName string
	log          *zap.Logger
	email        email.Provider
	sms          sms.Provider
}

func New(p Params) Notifier {
	return &Service{
		businessName: p.Config.Invoice.BusinessName,
		log:          p.Log.Named("notification"),
		email:        p.Email,
		sms:          p.SMS,
	}
}

func (s *Service) BookingConfirmed(ctx context.Context, notice BookingNotice) error {
	fields := s.bookingFields(notice)
	var errs []error
	if notice.CustomerEmail != "" {
		if err := s.email.SendTemplate(ctx, []string{notice.CustomerEmail}, "booking_confirmation", email.TemplateData{Fields: fields}); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	if notice.CustomerPhone != "" {
		body := fmt.Sprintf("%s: your cleaning %s is booked for %s %s. Total %s.",
			s.businessName, notice.Reference, notice.BookingDate, notice.TimeSlot, notice.Total.Format())
		if err := s.sms.Send(ctx, notice.CustomerPhone, body); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) BookingReminder(ctx context.Context, notice BookingNotice) error {
	fields := s.bookingFields(notice)
	var errs []error
	if notice.CustomerEmail != "" {
		if err := s.email.SendTemplate(ctx, []string{notice.CustomerEmail}, "booking_reminder", email.TemplateData{Fields: fields}); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	if notice.CustomerPhone != "" {
		body := fmt.Sprintf("Reminder from %s: your cleaning is on %s, %s.", s.businessName, notice.BookingDate, notice.TimeSlot)
		if err := s.sms.Send(ctx, notice.CustomerPhone, body); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) InvoiceIssued(ctx context.Context, notice InvoiceNotice) error {
	if notice.CustomerEmail == "" {
		return nil
	}
	return s.email.SendTemplate(ctx, []string{notice.CustomerEmail}, "invoice_new", email.TemplateData{
		Subject: fmt.Sprintf("Invoice %s from %s", notice.InvoiceNumber, s.businessName),
		Fields: map[string]any{
			"invoice_number": notice.InvoiceNumber,
			"customer_name":  notice.CustomerName,
			"business_name":  s.businessName,
			"total":          notice.Total.Format(),
			"due_date":       notice.DueDate,
		},
	})
}

func (s *Service) bookingFields(notice BookingNotice) map[string]any {
	fields := map[string]any{
		"business_name": s.businessName,
		"customer_name": notice.CustomerName,
		"reference":     notice.Reference,
		"booking_date":  notice.BookingDate,
		"time_slot":     notice.TimeSlot,
		"house_size":    notice.HouseSize,
		"frequency":     notice.Frequency,
		"duration":      strconv.Itoa(notice.DurationHours),
		"total":         notice.Total.Format(),
	}
	if notice.Discount > 0 {
		fields["discount"] = notice.Discount.Format()
	}
	return fields
}
