package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/humidityzone-backend/pkg/pagination"
)

// Base is embedded by repositories; it carries either the pool or a tx handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Paginate applies LIMIT/OFFSET for page.
func Paginate(page pagination.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(page.Limit()).Offset(page.Offset())
	}
}

// SortBy orders by each column in the same direction. Columns may be
// table-qualified ("o.order_date") and are quoted by the dialect.
func SortBy(desc bool, columns ...string) func(*gorm.DB) *gorm.DB {
	order := clause.OrderBy{Columns: make([]clause.OrderByColumn, 0, len(columns))}
	for _, col := range columns {
		column := clause.Column{Name: col}
		if table, name, ok := strings.Cut(col, "."); ok {
			column = clause.Column{Table: table, Name: name}
		}
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: column, Desc: desc})
	}
	return func(db *gorm.DB) *gorm.DB {
		if len(order.Columns) == 0 {
			return db
		}
		return db.Clauses(order)
	}
}

// Oldest orders ascending by columns, for FIFO work queues.
func Oldest(columns ...string) func(*gorm.DB) *gorm.DB {
	return SortBy(false, columns...)
}

// Newest orders descending by columns.
func Newest(columns ...string) func(*gorm.DB) *gorm.DB {
	return SortBy(true, columns...)
}
