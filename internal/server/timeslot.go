package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
)

const maxAvailableDays = 90

func (s *Server) ListTimeSlots(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		AbortWithError(c, timeslotdomain.ErrInvalidDate)
		return
	}

	resp, err := s.slotSvc.ListByDate(c.Request.Context(), date, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAvailableDates(c *gin.Context) {
	days := s.cfg.Slots.HorizonDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxAvailableDays {
			AbortWithError(c, newValidationError("days", "invalid_days", "days must be between 1 and 90"))
			return
		}
		days = parsed
	}

	from := s.clock.Now().In(s.cfg.Location())
	resp, err := s.slotSvc.AvailableDates(c.Request.Context(), from, days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setSlotAvailabilityRequest struct {
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	IsAvailable *bool  `json:"is_available"`
}

func (s *Server) SetSlotAvailability(c *gin.Context) {
	var req setSlotAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.IsAvailable == nil {
		AbortWithError(c, newValidationError("is_available", "invalid_is_available", "is_available is required"))
		return
	}

	resp, err := s.slotSvc.SetAvailability(c.Request.Context(), strings.TrimSpace(req.Date), strings.TrimSpace(req.TimeSlot), *req.IsAvailable)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "time_slot.availability_set", auditTargetTimeSlot, resp.ID.String(), map[string]any{
		"date":         resp.SlotDate,
		"time_slot":    resp.Label,
		"is_available": resp.IsAvailable,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
