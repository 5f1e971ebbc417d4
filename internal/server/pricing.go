package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
)

func (s *Server) GetPricingMatrix(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.pricingSvc.Matrix()})
}

func (s *Server) GetBasePrice(c *gin.Context) {
	size, err := pricingdomain.ParseHouseSize(c.Param("house_size"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	freq, err := pricingdomain.ParseFrequency(c.Param("frequency"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.pricingSvc.Quote(size, freq)})
}
