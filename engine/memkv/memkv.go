package memkv

import (
	"github.com/shardsql/shardsql/engine"
	"github.com/shardsql/shardsql/engine/kvrows"
	"github.com/shardsql/shardsql/engine/localkv"
	"github.com/shardsql/shardsql/engine/virtual"
	"github.com/shardsql/shardsql/sql"
)

type memKVEngine struct {
	kvrows.KVRows
}

func NewEngine(dataDir string) (engine.Engine, error) {
	me := &memKVEngine{}
	err := me.KVRows.Startup(localkv.NewStore(OpenStore()))
	if err != nil {
		return nil, err
	}
	ve := virtual.NewEngine(me)
	return ve, nil
}

func (_ *memKVEngine) CreateSystemTable(tblname sql.Identifier, maker engine.MakeVirtual) {
	panic("badger: use virtual engine with memkv engine")
}

func (_ *memKVEngine) CreateInfoTable(tblname sql.Identifier, maker engine.MakeVirtual) {
	panic("badger: use virtual engine with memkv engine")
}

func (_ *memKVEngine) IsTransactional() bool {
	return true
}
