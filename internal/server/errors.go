package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	"github.com/smallbiznis/maidbook/internal/auth/password"
	"github.com/smallbiznis/maidbook/internal/authorization"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/maidbook/internal/invoice/domain"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	reportdomain "github.com/smallbiznis/maidbook/internal/report/domain"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// Human text for business-rule and conflict reasons.
var reasonMessages = map[error]string{
	bookingdomain.ErrStatusTransition:   "Booking status change is not allowed",
	bookingdomain.ErrBookingClosed:      "Booking is already closed",
	bookingdomain.ErrPaymentNotAllowed:  "Payment is not allowed for this booking",
	bookingdomain.ErrCleanerUnavailable: "Cleaner is not available for this time slot",
	bookingdomain.ErrCleanerNotAssigned: "No cleaner is assigned to this booking",
	invoicedomain.ErrStatusTransition:   "Invoice status change is not allowed",
	invoicedomain.ErrBookingNotComplete: "Booking must be completed before invoicing",
	cleanerdomain.ErrInactive:           "Cleaner is inactive",
	timeslotdomain.ErrSlotUnavailable:   "Time slot is no longer available",
	timeslotdomain.ErrSlotReserved:      "Time slot is reserved by a booking",
	promodomain.ErrUsageLimitReached:    "Promo code usage limit has been reached",
	promodomain.ErrAlreadyUsed:          "You have already used this promo code",
	promodomain.ErrCodeExists:           "Promo code already exists",
	cleanerdomain.ErrEmailExists:        "Cleaner email already exists",
	authdomain.ErrEmailTaken:            "Email is already registered",
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var rejection *promodomain.RejectionError
	if errors.As(err, &rejection) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "business_rule",
			Reason:  string(rejection.Reason),
			Message: rejection.Message,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired):
		payload := errorPayload{Type: "unauthorized", Message: "unauthorized"}
		if errors.Is(err, authdomain.ErrInvalidCredentials) {
			payload.Message = "invalid email or password"
		}
		return http.StatusUnauthorized, payload
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Reason:  reasonCode(err),
			Message: reasonMessage(err, "conflict"),
		}
	case isBusinessRuleError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "business_rule",
			Reason:  reasonCode(err),
			Message: reasonMessage(err, "request violates a business rule"),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and a stable code for access logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Reason
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" {
		code = payload.Type
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	pricingdomain.ErrInvalidHouseSize,
	pricingdomain.ErrInvalidFrequency,
	timeslotdomain.ErrInvalidDate,
	timeslotdomain.ErrInvalidTimeSlot,
	timeslotdomain.ErrInvalidHorizon,
	bookingdomain.ErrInvalidID,
	bookingdomain.ErrInvalidQuantity,
	bookingdomain.ErrBookingDateInPast,
	bookingdomain.ErrContactRequired,
	bookingdomain.ErrInvalidEmail,
	bookingdomain.ErrInvalidName,
	bookingdomain.ErrInvalidStatus,
	bookingdomain.ErrInvalidPaymentStatus,
	catalogdomain.ErrInvalidID,
	catalogdomain.ErrInvalidName,
	catalogdomain.ErrInvalidPrice,
	catalogdomain.ErrInvalidDuration,
	catalogdomain.ErrPriceNotAllowed,
	promodomain.ErrInvalidID,
	promodomain.ErrInvalidCode,
	promodomain.ErrInvalidDiscountType,
	promodomain.ErrInvalidDiscountValue,
	promodomain.ErrInvalidUsageLimit,
	promodomain.ErrInvalidAmount,
	promodomain.ErrInvalidValidity,
	cleanerdomain.ErrInvalidID,
	cleanerdomain.ErrInvalidName,
	cleanerdomain.ErrInvalidEmail,
	customerdomain.ErrInvalidEmail,
	customerdomain.ErrInvalidID,
	invoicedomain.ErrInvalidInvoiceID,
	invoicedomain.ErrInvalidStatus,
	authdomain.ErrInvalidEmail,
	authdomain.ErrInvalidRole,
	password.ErrTooShort,
	reportdomain.ErrInvalidDateRange,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, bookingdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, promodomain.ErrNotFound),
		errors.Is(err, cleanerdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, timeslotdomain.ErrSlotNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, timeslotdomain.ErrSlotUnavailable),
		errors.Is(err, timeslotdomain.ErrSlotReserved),
		errors.Is(err, promodomain.ErrUsageLimitReached),
		errors.Is(err, promodomain.ErrAlreadyUsed),
		errors.Is(err, promodomain.ErrCodeExists),
		errors.Is(err, cleanerdomain.ErrEmailExists),
		errors.Is(err, authdomain.ErrEmailTaken),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	default:
		return false
	}
}

func isBusinessRuleError(err error) bool {
	switch {
	case errors.Is(err, bookingdomain.ErrStatusTransition),
		errors.Is(err, bookingdomain.ErrBookingClosed),
		errors.Is(err, bookingdomain.ErrPaymentNotAllowed),
		errors.Is(err, bookingdomain.ErrCleanerUnavailable),
		errors.Is(err, bookingdomain.ErrCleanerNotAssigned),
		errors.Is(err, invoicedomain.ErrStatusTransition),
		errors.Is(err, invoicedomain.ErrBookingNotComplete),
		errors.Is(err, cleanerdomain.ErrInactive):
		return true
	default:
		return false
	}
}

// reasonCode returns the sentinel text of the first known reason in err's chain.
func reasonCode(err error) string {
	for target := range reasonMessages {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "duplicate"
	}
	return ""
}

func reasonMessage(err error, fallback string) string {
	for target, message := range reasonMessages {
		if errors.Is(err, target) {
			return message
		}
	}
	return fallback
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_booking_date_past":
		return "booking date must not be in the past"
	case "invalid_password":
		return "password must be at least 8 characters"
	default:
		return "invalid value"
	}
}
