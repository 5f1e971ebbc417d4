package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/maidbook/internal/audit/domain"
	"github.com/smallbiznis/maidbook/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	auditTargetBooking  = "booking"
	auditTargetInvoice  = "invoice"
	auditTargetPromo    = "promo_code"
	auditTargetCleaner  = "cleaner"
	auditTargetService  = "service"
	auditTargetTimeSlot = "time_slot"
)

// recordAudit writes an audit entry for a completed change. A failed write
// is logged and never fails the request.
func (s *Server) recordAudit(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	ctx := c.Request.Context()
	err := s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		logger.FromContext(ctx).Warn("audit log write failed",
			zap.String("action", action),
			zap.String("target_type", targetType),
			zap.Error(err),
		)
	}
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	pageToken, pageSize, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	window, err := parseTimeRange(c, s.cfg.Location(), "start_at", "end_at")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		PageToken:  pageToken,
		PageSize:   pageSize,
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		ActorType:  strings.TrimSpace(c.Query("actor_type")),
		StartAt:    window.From,
		EndAt:      window.To,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
