package execute

import (
	"github.com/shardsql/shardsql/db"
	"github.com/shardsql/shardsql/engine"
	"github.com/shardsql/shardsql/session"
)

type Rows db.Rows

type Executor interface {
	Execute(ctx session.Context, tx *engine.Transaction) (int64, error)
}

type Plan interface{}
