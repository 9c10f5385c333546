package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/pkg/db/pagination"
)

type createProjectRequest struct {
	Code          string `json:"code"`
	Title         string `json:"title"`
	PrincipalName string `json:"principal_name"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.CreateProject(c.Request.Context(), registrydomain.CreateProjectRequest{
		Code:          strings.TrimSpace(req.Code),
		Title:         strings.TrimSpace(req.Title),
		PrincipalName: strings.TrimSpace(req.PrincipalName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProjectByID(c *gin.Context) {
	resp, err := s.registrySvc.GetProject(c.Request.Context(), registrydomain.GetProjectRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Code   string `form:"code"`
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalActive(query.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.registrySvc.ListProjects(c.Request.Context(), registrydomain.ListProjectsRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Code:      strings.TrimSpace(query.Code),
		Active:    active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createResourceRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

func (s *Server) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.CreateResource(c.Request.Context(), registrydomain.CreateResourceRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Unit:     strings.TrimSpace(req.Unit),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListResources(c *gin.Context) {
	var query struct {
		Category string `form:"category"`
		Active   string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalActive(query.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.registrySvc.ListResources(c.Request.Context(), registrydomain.ListResourcesRequest{
		Category: strings.TrimSpace(query.Category),
		Active:   active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createAccountRequest struct {
	ProjectID  string `json:"project_id"`
	ResourceID string `json:"resource_id"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.CreateAccount(c.Request.Context(), registrydomain.CreateAccountRequest{
		ProjectID:  strings.TrimSpace(req.ProjectID),
		ResourceID: strings.TrimSpace(req.ResourceID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccountByID(c *gin.Context) {
	resp, err := s.registrySvc.GetAccount(c.Request.Context(), registrydomain.GetAccountRequest{
		ID: strings.TrimSpace(c.Param("account_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAccounts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ProjectID  string `form:"project_id"`
		ResourceID string `form:"resource_id"`
		Active     string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalActive(query.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.registrySvc.ListAccounts(c.Request.Context(), registrydomain.ListAccountsRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		ProjectID:  strings.TrimSpace(query.ProjectID),
		ResourceID: strings.TrimSpace(query.ResourceID),
		Active:     active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateAccount(c *gin.Context) {
	resp, err := s.registrySvc.DeactivateAccount(c.Request.Context(), registrydomain.DeactivateAccountRequest{
		ID: strings.TrimSpace(c.Param("account_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalActive(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	switch strings.ToLower(trimmed) {
	case "true", "1":
		active := true
		return &active, nil
	case "false", "0":
		active := false
		return &active, nil
	default:
		return nil, newValidationError("active", "invalid_active", "active must be true or false")
	}
}

func isRegistryValidationError(err error) bool {
	switch err {
	case registrydomain.ErrInvalidCode,
		registrydomain.ErrInvalidTitle,
		registrydomain.ErrInvalidName,
		registrydomain.ErrInvalidCategory,
		registrydomain.ErrInvalidUnit,
		registrydomain.ErrInvalidID,
		registrydomain.ErrProjectInactive,
		registrydomain.ErrResourceInactive,
		registrydomain.ErrAccountInactive:
		return true
	default:
		return false
	}
}
