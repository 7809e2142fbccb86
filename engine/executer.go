package engine

import (
	"github.com/shardsql/shardsql/db"
	"github.com/shardsql/shardsql/session"
)

type Rows db.Rows

type Executer interface {
	Execute(ctx session.Context, tx *Transaction) (int64, error)
}
