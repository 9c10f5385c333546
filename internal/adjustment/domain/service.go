package domain

import (
	"context"
	"errors"
	"time"
)

type CreateAdjustmentRequest struct {
	AccountID      string
	Amount         float64
	AdjustmentDate time.Time
	Reason         string
}

type ListAdjustmentsRequest struct {
	AccountID string
	StartDate *time.Time
	EndDate   *time.Time
}

type Service interface {
	Create(context.Context, CreateAdjustmentRequest) (Adjustment, error)
	List(context.Context, ListAdjustmentsRequest) ([]Adjustment, error)
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidDate   = errors.New("invalid_date")
	ErrEmptyReason   = errors.New("empty_reason")
	ErrInvalidID     = errors.New("invalid_id")
)
