package option

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a GORM statement before it runs.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOrder(expr string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

func WithPreload(association string, args ...interface{}) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, args...)
	})
}

// ApplyPagination windows a listing by cursor. Listings order by
// (created_at desc, id desc); the cursor pins where the previous page
// stopped. One extra row is fetched so callers can detect more pages.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if size > 250 {
			size = 250
		}

		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil && cursor.CreatedAt != "" {
				if ts, terr := time.Parse(time.RFC3339, cursor.CreatedAt); terr == nil {
					if id, ierr := snowflake.ParseString(cursor.ID); ierr == nil {
						db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", ts, ts, id)
					} else {
						db = db.Where("created_at < ?", ts)
					}
				}
			}
		}

		return db.Limit(size + 1)
	})
}
