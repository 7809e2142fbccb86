package stmt

import (
	"fmt"

	"github.com/shardsql/shardsql/engine"
	"github.com/shardsql/shardsql/sql"
)

type Stmt interface {
	fmt.Stringer
	Execute(e *engine.Engine) (interface{}, error)
}

type TableAlias struct {
	TableName
	Alias sql.Identifier
}
