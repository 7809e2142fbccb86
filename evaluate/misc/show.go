package misc

import (
	"context"
	"fmt"

	"github.com/shardsql/shardsql/evaluate"
	"github.com/shardsql/shardsql/evaluate/query"
	"github.com/shardsql/shardsql/sql"
)

type Show struct {
	Variable sql.Identifier
}

func (stmt *Show) String() string {
	return fmt.Sprintf("SHOW %s", stmt.Variable)
}

func (stmt *Show) Plan(ses *evaluate.Session, ctx context.Context, pe evaluate.PlanEngine,
	tx sql.Transaction) (evaluate.Plan, error) {

	return query.RowsPlan(ses.Show(stmt.Variable))
}
