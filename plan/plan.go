package plan

import (
	"github.com/shardsql/shardsql/db"
	"github.com/shardsql/shardsql/engine"
)

type Rows db.Rows

type Executer interface {
	Execute(tx engine.Transaction) (int64, error)
}
