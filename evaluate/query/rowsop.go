package query

import (
	"context"

	"github.com/shardsql/shardsql/sql"
)

type rowsOp interface {
	explain() string
	rows(ctx context.Context, e sql.Engine, tx sql.Transaction) (sql.Rows, error)
}
