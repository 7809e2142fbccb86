package rowcols_test

import (
	"testing"

	"github.com/shardsql/shardsql/engine/rowcols"
	"github.com/shardsql/shardsql/engine/test"
)

func TestRowCols(t *testing.T) {
	e, err := rowcols.NewEngine("testdata")
	if err != nil {
		t.Fatal(err)
	}
	test.RunDatabaseTest(t, e, true)
	test.RunTableTest(t, e)
	test.RunSchemaTest(t, e)
	test.RunTableLifecycleTest(t, e)
	test.RunTableRowsTest(t, e)
	test.RunStressTest(t, e)
	test.RunParallelTest(t, e)
}
