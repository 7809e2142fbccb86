package kvrows_test

import (
	"path/filepath"
	"testing"

	"github.com/shardsql/shardsql/engine/badger"
	"github.com/shardsql/shardsql/engine/bbolt"
	"github.com/shardsql/shardsql/engine/kvrows"
	"github.com/shardsql/shardsql/engine/localkv"
	"github.com/shardsql/shardsql/engine/memkv"
	"github.com/shardsql/shardsql/engine/test"
	"github.com/shardsql/shardsql/testutil"
)

func testEngine(t *testing.T, st kvrows.Store) {
	t.Helper()

	var kv kvrows.KVRows
	err := kv.Startup(st)
	if err != nil {
		t.Fatalf("kv.Startup() failed with %s", err)
	}

	test.RunDatabaseTest(t, &kv, true)
	test.RunTableTest(t, &kv)
	test.RunSchemaTest(t, &kv)
	test.RunTableLifecycleTest(t, &kv)
	/*
		XXX
		test.RunTableRowsTest(t, &kv)
		test.RunParallelTest(t, &kv)
		test.RunStressTest(t, &kv)
	*/
}

func TestBadger(t *testing.T) {
	err := testutil.CleanDir("testdata", []string{".gitignore"})
	if err != nil {
		t.Fatalf("CleanDir() failed with %s", err)
	}

	st, err := badger.OpenStore(filepath.Join("testdata", "teststore"))
	if err != nil {
		t.Fatal(err)
	}
	testEngine(t, localkv.NewStore(st))
}

func TestBBolt(t *testing.T) {
	err := testutil.CleanDir("testdata", []string{".gitignore"})
	if err != nil {
		t.Fatalf("CleanDir() failed with %s", err)
	}

	st, err := bbolt.OpenStore(filepath.Join("testdata", "teststore"))
	if err != nil {
		t.Fatal(err)
	}
	testEngine(t, localkv.NewStore(st))
}

func TestMemKV(t *testing.T) {
	testEngine(t, localkv.NewStore(memkv.OpenStore()))
}
