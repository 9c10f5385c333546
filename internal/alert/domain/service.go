package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordCrossingRequest captures one threshold crossing seen by a scan.
type RecordCrossingRequest struct {
	AllocationID     snowflake.ID
	AccountID        snowflake.ID
	ThresholdPercent float64
	PercentUsed      float64
	State            AlertState
	At               time.Time
}

type ListAlertsRequest struct {
	AllocationID string
	AccountID    string
}

type Service interface {
	// RecordCrossing stores the alert once per (allocation, threshold).
	// It reports whether this call created the record.
	RecordCrossing(context.Context, RecordCrossingRequest) (bool, error)
	List(context.Context, ListAlertsRequest) ([]AllocationAlert, error)
}

var (
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrInvalidState     = errors.New("invalid_state")
	ErrInvalidID        = errors.New("invalid_id")
)
