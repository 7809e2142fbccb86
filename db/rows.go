package db

import (
	"github.com/shardsql/shardsql/sql"
)

type Rows interface {
	Columns() []ColumnType
	Close() error
	Next(dest []sql.Value) error
}
