package memkv_test

import (
	"testing"

	"github.com/shardsql/shardsql/engine/memkv"
	"github.com/shardsql/shardsql/engine/test"
)

func TestStore(t *testing.T) {
	test.RunLocalKVTest(t, memkv.OpenStore())
}
