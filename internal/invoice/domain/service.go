package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/maidbook/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	Status     string
	CustomerID string
}

type ListInvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// Document is a rendered invoice or receipt.
type Document struct {
	Filename string
	Content  []byte
}

type Service interface {
	// GenerateForBooking issues the invoice of a completed booking, returning
	// the existing one when it was already issued.
	GenerateForBooking(ctx context.Context, bookingID string) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	UpdateStatus(ctx context.Context, id string, status string) (Invoice, error)
	// MarkOverdue flags sent invoices whose due date passed before now.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	// RenderPDF returns a receipt for paid invoices and an invoice otherwise.
	RenderPDF(ctx context.Context, id string) (Document, error)
}

var (
	ErrInvalidInvoiceID   = errors.New("invalid_invoice_id")
	ErrInvalidStatus      = errors.New("invalid_invoice_status")
	ErrStatusTransition   = errors.New("invoice_status_transition_not_allowed")
	ErrBookingNotComplete = errors.New("booking_not_completed")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
)
