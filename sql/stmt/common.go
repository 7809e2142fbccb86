package stmt

import (
	"fmt"
	"github.com/shardsql/shardsql/sql"
)

type TableName struct {
	Database sql.Identifier
	Table    sql.Identifier
}

func (tn *TableName) String() string {
	if tn.Database == 0 {
		return fmt.Sprintf("%s ", tn.Table)
	}
	return fmt.Sprintf("%s.%s ", tn.Database, tn.Table)
}
