package stmt_test

import (
	"testing"

	"github.com/shardsql/shardsql/sql"
	"github.com/shardsql/shardsql/stmt"
)

func TestCreateTable(t *testing.T) {
	s := stmt.CreateTable{Table: sql.TableName{sql.ID("xyz"), sql.ID("abc")}}
	r := "CREATE TABLE xyz.abc ()"
	if s.String() != r {
		t.Errorf("CreateTable{}.String() got %s want %s", s.String(), r)
	}
}
