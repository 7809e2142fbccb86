package kvrows_test

import (
	"path/filepath"
	"testing"

	"github.com/shardsql/shardsql/storage/kvrows"
	"github.com/shardsql/shardsql/testutil"
)

func TestPebbleKV(t *testing.T) {
	dataDir := filepath.Join("testdata", "pebble_kv")
	err := testutil.CleanDir(dataDir, []string{".gitignore"})
	if err != nil {
		t.Fatal(err)
	}

	kv, err := kvrows.MakePebbleKV(dataDir)
	if err != nil {
		t.Fatal(err)
	}

	testKV(t, kv)
}
