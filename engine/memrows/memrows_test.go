package memrows_test

import (
	"testing"

	"github.com/shardsql/shardsql/engine/memrows"
	"github.com/shardsql/shardsql/engine/test"
)

func TestMemRows(t *testing.T) {
	e := &memrows.Engine{}
	test.RunDatabaseTest(t, e)
	test.RunTableTest(t, e)
	test.RunParallelTest(t, e)
	test.RunStressTest(t, e)
}
