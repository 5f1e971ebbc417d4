package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
)

func (s *Server) ListServices(c *gin.Context) {
	req, err := parseListServiceRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListServicesAdmin(c *gin.Context) {
	req, err := parseListServiceRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	includeArchived, err := parseOptionalBool(c.Query("include_archived"))
	if err != nil {
		AbortWithError(c, newValidationError("include_archived", "invalid_include_archived", "invalid include_archived"))
		return
	}
	if includeArchived != nil {
		req.IncludeArchive = *includeArchived
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateService(c *gin.Context) {
	var req catalogdomain.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "service.created", auditTargetService, resp.ID.String(), map[string]any{"name": resp.Name})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetService(c *gin.Context) {
	resp, err := s.catalogSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateService(c *gin.Context) {
	var req catalogdomain.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "service.updated", auditTargetService, resp.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchiveService(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.catalogSvc.Archive(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "service.archived", auditTargetService, id, nil)

	c.Status(http.StatusNoContent)
}

func parseListServiceRequest(c *gin.Context) (catalogdomain.ListServiceRequest, error) {
	aLaCarte, err := parseOptionalBool(c.Query("a_la_carte"))
	if err != nil {
		return catalogdomain.ListServiceRequest{}, newValidationError("a_la_carte", "invalid_a_la_carte", "invalid a_la_carte")
	}
	return catalogdomain.ListServiceRequest{
		ALaCarte: aLaCarte,
		Category: strings.TrimSpace(c.Query("category")),
	}, nil
}
