package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/pkg/db/pagination"
)

type CreateProjectRequest struct {
	Code          string
	Title         string
	PrincipalName string
}

type GetProjectRequest struct {
	ID string
}

type ListProjectsRequest struct {
	PageToken string
	PageSize  int32
	Code      string
	Active    *bool
}

type ListProjectFilter struct {
	Code   string
	Active *bool
}

type ListProjectsResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type CreateResourceRequest struct {
	Code     string
	Name     string
	Category string
	Unit     string
}

type ListResourcesRequest struct {
	Category string
	Active   *bool
}

type ListResourceFilter struct {
	Category ResourceCategory
	Active   *bool
}

type CreateAccountRequest struct {
	ProjectID  string
	ResourceID string
}

type GetAccountRequest struct {
	ID string
}

type ListAccountsRequest struct {
	PageToken  string
	PageSize   int32
	ProjectID  string
	ResourceID string
	Active     *bool
}

type ListAccountFilter struct {
	ProjectID  snowflake.ID
	ResourceID snowflake.ID
	Active     *bool
}

type ListAccountsResponse struct {
	pagination.PageInfo
	Accounts []Account `json:"accounts"`
}

type DeactivateAccountRequest struct {
	ID string
}

type Service interface {
	CreateProject(context.Context, CreateProjectRequest) (Project, error)
	GetProject(context.Context, GetProjectRequest) (Project, error)
	ListProjects(context.Context, ListProjectsRequest) (ListProjectsResponse, error)

	CreateResource(context.Context, CreateResourceRequest) (Resource, error)
	ListResources(context.Context, ListResourcesRequest) ([]Resource, error)

	CreateAccount(context.Context, CreateAccountRequest) (Account, error)
	GetAccount(context.Context, GetAccountRequest) (AccountDetail, error)
	ListAccounts(context.Context, ListAccountsRequest) (ListAccountsResponse, error)
	DeactivateAccount(context.Context, DeactivateAccountRequest) (Account, error)
}

// ResolverInvalidator drops cached account resolutions after registry
// writes. The cache package provides the implementation.
type ResolverInvalidator interface {
	InvalidateAccount(id snowflake.ID)
}

var (
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidUnit       = errors.New("invalid_unit")
	ErrInvalidID         = errors.New("invalid_id")
	ErrProjectNotFound   = errors.New("project_not_found")
	ErrResourceNotFound  = errors.New("resource_not_found")
	ErrAccountNotFound   = errors.New("account_not_found")
	ErrDuplicateProject  = errors.New("duplicate_project")
	ErrDuplicateResource = errors.New("duplicate_resource")
	ErrDuplicateAccount  = errors.New("duplicate_account")
	ErrProjectInactive   = errors.New("project_inactive")
	ErrResourceInactive  = errors.New("resource_inactive")
	ErrAccountInactive   = errors.New("account_inactive")
)
