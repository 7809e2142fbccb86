package execute

import (
	"fmt"

	"github.com/shardsql/shardsql/db"
	"github.com/shardsql/shardsql/engine"
)

type Stmt interface {
	fmt.Stringer
	Plan(ses *Session, tx *engine.Transaction) (interface{}, error)
}

type Rows db.Rows

type Executor interface {
	Execute(ses *Session, tx *engine.Transaction) (int64, error)
}
