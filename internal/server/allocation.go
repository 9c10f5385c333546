package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/pkg/db/pagination"
)

type createAllocationRequest struct {
	AccountID string  `json:"account_id"`
	ParentID  string  `json:"parent_id"`
	Amount    float64 `json:"amount"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Note      string  `json:"note"`
}

func (s *Server) CreateAllocation(c *gin.Context) {
	var req createAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseRequiredDate("start_date", req.StartDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.allocationSvc.Create(c.Request.Context(), allocationdomain.CreateAllocationRequest{
		AccountID: strings.TrimSpace(req.AccountID),
		ParentID:  strings.TrimSpace(req.ParentID),
		Amount:    req.Amount,
		StartDate: startDate,
		EndDate:   endDate,
		Note:      strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAllocationByID(c *gin.Context) {
	resp, err := s.allocationSvc.GetByID(c.Request.Context(), allocationdomain.GetAllocationRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAllocations(c *gin.Context) {
	var query struct {
		pagination.Pagination
		AccountID string `form:"account_id"`
		ActiveAt  string `form:"active_at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeAt, err := parseOptionalDate("active_at", query.ActiveAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.allocationSvc.List(c.Request.Context(), allocationdomain.ListAllocationsRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		AccountID: strings.TrimSpace(query.AccountID),
		ActiveAt:  activeAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAllocationValidationError(err error) bool {
	switch err {
	case allocationdomain.ErrInvalidAmount,
		allocationdomain.ErrInvalidWindow,
		allocationdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
