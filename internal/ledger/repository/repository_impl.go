package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/dates"
	"github.com/summitgrid/corebank/internal/ledger/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type reader struct{}

func Provide() domain.Reader {
	return &reader{}
}

// chargeRow is the union of every ledger's columns; each source's query
// fills only its own metric columns.
type chargeRow struct {
	AccountID    snowflake.ID
	ActivityDate time.Time
	Charge       float64
	CoreHours    float64
	JobCount     int64
	SessionCount int64
	BytesStored  int64
	FileCount    int64
}

type sourceDescriptor struct {
	table   string
	columns string
	metrics func(row chargeRow) datatypes.JSONMap
}

var sources = map[domain.Source]sourceDescriptor{
	domain.SourceCompute: {
		table:   "compute_daily_charges",
		columns: "core_hours, job_count",
		metrics: func(row chargeRow) datatypes.JSONMap {
			return datatypes.JSONMap{"core_hours": row.CoreHours, "job_count": row.JobCount}
		},
	},
	domain.SourceInteractive: {
		table:   "interactive_daily_charges",
		columns: "core_hours, session_count",
		metrics: func(row chargeRow) datatypes.JSONMap {
			return datatypes.JSONMap{"core_hours": row.CoreHours, "session_count": row.SessionCount}
		},
	},
	domain.SourceDisk: {
		table:   "disk_daily_charges",
		columns: "bytes_stored, file_count",
		metrics: func(row chargeRow) datatypes.JSONMap {
			return datatypes.JSONMap{"bytes_stored": row.BytesStored, "file_count": row.FileCount}
		},
	},
	domain.SourceArchive: {
		table:   "archive_daily_charges",
		columns: "bytes_stored, file_count",
		metrics: func(row chargeRow) datatypes.JSONMap {
			return datatypes.JSONMap{"bytes_stored": row.BytesStored, "file_count": row.FileCount}
		},
	},
}

func (r *reader) SumCharges(ctx context.Context, db *gorm.DB, source domain.Source, accountID snowflake.ID, window dates.Range) (float64, error) {
	desc, ok := sources[source]
	if !ok {
		return 0, fmt.Errorf("unknown ledger source %q", source)
	}

	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(charge), 0) FROM `+desc.table+`
		 WHERE account_id = ? AND activity_date BETWEEN ? AND ?`,
		accountID,
		window.Start,
		window.End,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *reader) ListDailyCharges(ctx context.Context, db *gorm.DB, source domain.Source, accountID snowflake.ID, window dates.Range) ([]domain.DailyCharge, error) {
	desc, ok := sources[source]
	if !ok {
		return nil, fmt.Errorf("unknown ledger source %q", source)
	}

	var rows []chargeRow
	err := db.WithContext(ctx).Raw(
		`SELECT account_id, activity_date, charge, `+desc.columns+` FROM `+desc.table+`
		 WHERE account_id = ? AND activity_date BETWEEN ? AND ?
		 ORDER BY activity_date asc`,
		accountID,
		window.Start,
		window.End,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	charges := make([]domain.DailyCharge, 0, len(rows))
	for _, row := range rows {
		charges = append(charges, domain.DailyCharge{
			Source:       source,
			AccountID:    row.AccountID,
			ActivityDate: row.ActivityDate,
			Charge:       row.Charge,
			Metrics:      desc.metrics(row),
		})
	}
	return charges, nil
}
