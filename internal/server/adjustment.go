package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
)

type createAdjustmentRequest struct {
	AccountID      string  `json:"account_id"`
	Amount         float64 `json:"amount"`
	AdjustmentDate string  `json:"adjustment_date"`
	Reason         string  `json:"reason"`
}

func (s *Server) CreateAdjustment(c *gin.Context) {
	var req createAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	adjustmentDate, err := parseRequiredDate("adjustment_date", req.AdjustmentDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.adjustmentSvc.Create(c.Request.Context(), adjustmentdomain.CreateAdjustmentRequest{
		AccountID:      strings.TrimSpace(req.AccountID),
		Amount:         req.Amount,
		AdjustmentDate: adjustmentDate,
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAdjustments(c *gin.Context) {
	var query struct {
		AccountID string `form:"account_id"`
		StartDate string `form:"start_date"`
		EndDate   string `form:"end_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalDate("start_date", query.StartDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseOptionalDate("end_date", query.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.adjustmentSvc.List(c.Request.Context(), adjustmentdomain.ListAdjustmentsRequest{
		AccountID: strings.TrimSpace(query.AccountID),
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAdjustmentValidationError(err error) bool {
	switch err {
	case adjustmentdomain.ErrInvalidAmount,
		adjustmentdomain.ErrInvalidDate,
		adjustmentdomain.ErrEmptyReason,
		adjustmentdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
