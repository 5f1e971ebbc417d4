package authorization

import (
	"context"
	"errors"
)

const (
	ObjectBooking  = "booking"
	ObjectInvoice  = "invoice"
	ObjectPromo    = "promo"
	ObjectCatalog  = "catalog"
	ObjectCleaner  = "cleaner"
	ObjectCustomer = "customer"
	ObjectReport   = "report"
	ObjectTimeSlot = "time_slot"
	ObjectAudit    = "audit"
)

const (
	ActionBookingCreate  = "booking.create"
	ActionBookingViewOwn = "booking.view_own"
	ActionBookingPayOwn  = "booking.pay_own"
	ActionBookingView    = "booking.view"
	ActionBookingUpdate  = "booking.update"
	ActionBookingAssign  = "booking.assign"

	ActionInvoiceViewOwn  = "invoice.view_own"
	ActionInvoiceView     = "invoice.view"
	ActionInvoiceGenerate = "invoice.generate"
	ActionInvoiceUpdate   = "invoice.update"

	ActionPromoValidate = "promo.validate"
	ActionPromoManage   = "promo.manage"

	ActionCatalogManage  = "catalog.manage"
	ActionCleanerManage  = "cleaner.manage"
	ActionCustomerView   = "customer.view"
	ActionReportView     = "report.view"
	ActionTimeSlotManage = "time_slot.manage"
	ActionAuditView      = "audit.view"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	// Authorize checks that subject, holding role, may perform action on object.
	Authorize(ctx context.Context, subject string, role string, object string, action string) error
}
