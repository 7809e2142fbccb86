package misc

import (
	"github.com/shardsql/shardsql/engine"
	"github.com/shardsql/shardsql/execute"
	"github.com/shardsql/shardsql/session"
)

type Commit struct{}

func (stmt *Commit) String() string {
	return "COMMIT"
}

func (stmt *Commit) Plan(ctx session.Context, tx *engine.Transaction) (execute.Plan, error) {
	return stmt, nil
}

func (stmt *Commit) Execute(ctx session.Context, tx *engine.Transaction) (int64, error) {
	return 0, nil // XXX
}
