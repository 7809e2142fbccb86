package test

import (
	"testing"

	"github.com/shardsql/shardsql/engine"
	"github.com/shardsql/shardsql/evaluate"
	"github.com/shardsql/shardsql/sql"
	"github.com/shardsql/shardsql/storage/basic"
)

func StartSession(t *testing.T) (sql.Engine, *evaluate.Session) {
	t.Helper()

	st, err := basic.NewStore("testdata")
	if err != nil {
		t.Fatal(err)
	}
	e := engine.NewEngine(st)

	err = e.CreateDatabase(sql.ID("test"), nil)
	if err != nil {
		t.Fatal(err)
	}

	return e, &evaluate.Session{
		Engine:          e,
		DefaultDatabase: sql.ID("test"),
		DefaultSchema:   sql.PUBLIC,
	}
}
