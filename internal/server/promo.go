package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
)

type validatePromoCodeRequest struct {
	Code          string       `json:"code"`
	Subtotal      money.Amount `json:"subtotal"`
	CustomerEmail string       `json:"customer_email"`
}

// ValidatePromoCode previews a discount. Rejections are returned as a
// 200 with valid=false so the checkout form can show the message inline.
func (s *Server) ValidatePromoCode(c *gin.Context) {
	var req validatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Subtotal.IsNegative() {
		AbortWithError(c, promodomain.ErrInvalidAmount)
		return
	}

	customerID := ""
	if identity, ok := identityFromContext(c); ok {
		customerID = identity.UserID.String()
	} else if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		customerID = customerdomain.GuestID(email)
	}

	result, err := s.promoSvc.Validate(c.Request.Context(), promodomain.ValidateRequest{
		Code:       req.Code,
		CustomerID: customerID,
		Subtotal:   req.Subtotal,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListPromoCodes(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.promoSvc.List(c.Request.Context(), activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePromoCode(c *gin.Context) {
	var req promodomain.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promoSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "promo.created", auditTargetPromo, resp.ID.String(), map[string]any{"code": resp.Code})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPromoCode(c *gin.Context) {
	resp, err := s.promoSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePromoCode(c *gin.Context) {
	var req promodomain.UpdatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promoSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "promo.updated", auditTargetPromo, resp.ID.String(), map[string]any{"code": resp.Code})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePromoCode(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.promoSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "promo.deleted", auditTargetPromo, id, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) ListPromoCodeUsages(c *gin.Context) {
	resp, err := s.promoSvc.ListUsages(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
