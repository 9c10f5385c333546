package domain

import (
	"context"
	"errors"
	"time"

	"github.com/summitgrid/corebank/pkg/db/pagination"
)

type CreateAllocationRequest struct {
	AccountID string
	ParentID  string
	Amount    float64
	StartDate time.Time
	EndDate   *time.Time
	Note      string
}

type GetAllocationRequest struct {
	ID string
}

type ListAllocationsRequest struct {
	PageToken string
	PageSize  int32
	AccountID string
	ActiveAt  *time.Time
}

type ListAllocationFilter struct {
	AccountID int64
	ActiveAt  *time.Time
}

type ListAllocationsResponse struct {
	pagination.PageInfo
	Allocations []Allocation `json:"allocations"`
}

type ListActiveRequest struct {
	AccountID string
	At        time.Time
}

type Service interface {
	Create(context.Context, CreateAllocationRequest) (Allocation, error)
	GetByID(context.Context, GetAllocationRequest) (Allocation, error)
	List(context.Context, ListAllocationsRequest) (ListAllocationsResponse, error)
	ListActive(context.Context, ListActiveRequest) ([]Allocation, error)
}

var (
	ErrAllocationNotFound = errors.New("allocation_not_found")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidWindow      = errors.New("invalid_window")
	ErrParentNotFound     = errors.New("parent_not_found")
	ErrInvalidID          = errors.New("invalid_id")
)
