package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
)

func (s *Server) ListCleaners(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.cleanerSvc.List(c.Request.Context(), activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCleaner(c *gin.Context) {
	var req cleanerdomain.CreateCleanerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cleanerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "cleaner.created", auditTargetCleaner, resp.ID.String(), nil)

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCleaner(c *gin.Context) {
	resp, err := s.cleanerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCleaner(c *gin.Context) {
	var req cleanerdomain.UpdateCleanerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cleanerSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "cleaner.updated", auditTargetCleaner, resp.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCleaner(c *gin.Context) {
	resp, err := s.cleanerSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "cleaner.deactivated", auditTargetCleaner, resp.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
