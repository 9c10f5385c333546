package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
)

func (s *Server) ListAllocationAlerts(c *gin.Context) {
	var query struct {
		AllocationID string `form:"allocation_id"`
		AccountID    string `form:"account_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.alertSvc.List(c.Request.Context(), alertdomain.ListAlertsRequest{
		AllocationID: strings.TrimSpace(query.AllocationID),
		AccountID:    strings.TrimSpace(query.AccountID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAlertValidationError(err error) bool {
	switch err {
	case alertdomain.ErrInvalidThreshold,
		alertdomain.ErrInvalidState,
		alertdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
