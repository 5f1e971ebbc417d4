package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
)

func (s *Server) ListCustomers(c *gin.Context) {
	pageToken, pageSize, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	created, err := parseTimeRange(c, s.cfg.Location(), "created_from", "created_to")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:   pageToken,
		PageSize:    pageSize,
		Email:       strings.TrimSpace(c.Query("email")),
		Name:        strings.TrimSpace(c.Query("name")),
		CreatedFrom: created.From,
		CreatedTo:   created.To,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
