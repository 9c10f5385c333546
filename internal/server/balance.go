package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	balancedomain "github.com/summitgrid/corebank/internal/balance/domain"
)

// GetAllocationBalance answers the position query for one allocation.
// An omitted as_of means "now"; an explicit one is authoritative, even
// in the future.
func (s *Server) GetAllocationBalance(c *gin.Context) {
	asOf, err := parseAsOf(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.balanceSvc.ComputeBalance(c.Request.Context(), balancedomain.BalanceQuery{
		AllocationID: strings.TrimSpace(c.Param("id")),
		AsOf:         asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordBalanceQuery(c.Request.Context(), "allocation")
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetAllocationRollup answers the subtree position query: the allocation
// plus every descendant reachable through parent links.
func (s *Server) GetAllocationRollup(c *gin.Context) {
	asOf, err := parseAsOf(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.balanceSvc.ComputeRollup(c.Request.Context(), balancedomain.RollupQuery{
		AllocationID: strings.TrimSpace(c.Param("id")),
		AsOf:         asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordBalanceQuery(c.Request.Context(), "rollup")
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
