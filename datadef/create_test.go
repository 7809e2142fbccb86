package datadef_test

import (
	"testing"

	"github.com/shardsql/shardsql/datadef"
	"github.com/shardsql/shardsql/sql"
)

func TestCreateTable(t *testing.T) {
	s := datadef.CreateTable{Table: sql.TableName{Database: sql.ID("xyz"), Table: sql.ID("abc")}}
	r := "CREATE TABLE xyz.abc ()"
	if s.String() != r {
		t.Errorf("CreateTable{}.String() got %s want %s", s.String(), r)
	}
}
