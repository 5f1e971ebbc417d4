package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/maidbook/internal/report/domain"
)

func (s *Server) GetStats(c *gin.Context) {
	resp, err := s.reportSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetWeeklyReport(c *gin.Context) {
	resp, err := s.reportSvc.Weekly(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMonthlyReport(c *gin.Context) {
	resp, err := s.reportSvc.Monthly(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPendingOrders(c *gin.Context) {
	pageToken, pageSize, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportSvc.PendingOrders(c.Request.Context(), reportdomain.OrderListRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderHistory(c *gin.Context) {
	pageToken, pageSize, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportSvc.OrderHistory(c.Request.Context(), reportdomain.OrderListRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ExportBookings renders into a buffer so a failed query still maps to a JSON error.
func (s *Server) ExportBookings(c *gin.Context) {
	var buf bytes.Buffer
	err := s.reportSvc.ExportBookingsCSV(c.Request.Context(), &buf, reportdomain.ExportRequest{
		DateFrom: strings.TrimSpace(c.Query("date_from")),
		DateTo:   strings.TrimSpace(c.Query("date_to")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.csv", s.clock.Now().In(s.cfg.Location()).Format(dateOnlyLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
