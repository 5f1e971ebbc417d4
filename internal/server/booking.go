package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
)

type guestBookingRequest struct {
	bookingdomain.Cart
	Customer *bookingdomain.Contact `json:"customer"`
}

type customerBookingRequest struct {
	bookingdomain.Cart
	Customer *bookingdomain.Contact `json:"customer,omitempty"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type assignCleanerRequest struct {
	CleanerID string `json:"cleaner_id"`
}

func (s *Server) CreateGuestBooking(c *gin.Context) {
	var req guestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Customer == nil {
		AbortWithError(c, bookingdomain.ErrContactRequired)
		return
	}

	resp, err := s.bookingSvc.CreateBooking(c.Request.Context(), bookingdomain.CreateBookingRequest{
		Cart:    req.Cart,
		Contact: req.Customer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetBookingByReference(c *gin.Context) {
	resp, err := s.bookingSvc.GetByReference(c.Request.Context(), strings.TrimSpace(c.Param("reference")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateBooking(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req customerBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.CreateBooking(c.Request.Context(), bookingdomain.CreateBookingRequest{
		Cart:    req.Cart,
		UserID:  identity.UserID.String(),
		Contact: req.Customer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMyBookings(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req, err := parseListBookingRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bookingSvc.ListForCustomer(c.Request.Context(), identity.UserID.String(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMyBooking(c *gin.Context) {
	booking, err := s.ownBooking(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

func (s *Server) PayMyBooking(c *gin.Context) {
	booking, err := s.ownBooking(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bookingSvc.ProcessPayment(c.Request.Context(), booking.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ownBooking loads the booking in the path and hides other customers' bookings.
func (s *Server) ownBooking(c *gin.Context) (bookingdomain.Booking, error) {
	identity, ok := identityFromContext(c)
	if !ok {
		return bookingdomain.Booking{}, ErrUnauthorized
	}

	booking, err := s.bookingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		return bookingdomain.Booking{}, err
	}
	if booking.CustomerID != identity.UserID.String() {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	return booking, nil
}

func (s *Server) ListBookings(c *gin.Context) {
	req, err := parseListBookingRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req.CustomerID = strings.TrimSpace(c.Query("customer_id"))

	resp, err := s.bookingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBooking(c *gin.Context) {
	resp, err := s.bookingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBookingStatus(c *gin.Context) {
	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.UpdateStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "booking.status_updated", auditTargetBooking, resp.ID.String(), map[string]any{"status": string(resp.Status)})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBookingPaymentStatus(c *gin.Context) {
	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.UpdatePaymentStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.PaymentStatus)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "booking.payment_status_updated", auditTargetBooking, resp.ID.String(), map[string]any{"payment_status": string(resp.PaymentStatus)})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignCleaner(c *gin.Context) {
	var req assignCleanerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.AssignCleaner(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.CleanerID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "booking.cleaner_assigned", auditTargetBooking, resp.ID.String(), map[string]any{"cleaner_id": strings.TrimSpace(req.CleanerID)})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SyncBookingCalendar(c *gin.Context) {
	resp, err := s.bookingSvc.SyncCalendar(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseListBookingRequest(c *gin.Context) (bookingdomain.ListBookingRequest, error) {
	pageToken, pageSize, err := parsePagination(c)
	if err != nil {
		return bookingdomain.ListBookingRequest{}, err
	}
	return bookingdomain.ListBookingRequest{
		PageToken:     pageToken,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		DateFrom:      strings.TrimSpace(c.Query("date_from")),
		DateTo:        strings.TrimSpace(c.Query("date_to")),
	}, nil
}
