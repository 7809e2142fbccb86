package dml

import (
	"testing"

	"github.com/shardsql/shardsql/collab"
	"github.com/shardsql/shardsql/sql"
)

func TestBTreeIndexInsertDeleteUpdate(t *testing.T) {
	idx := NewBTreeIndex(collab.IndexDef{Name: "pk", KeyCols: []int{0}, Ascending: []bool{true}})
	key := collab.IndexKey{sql.Int64Value(7)}
	rid := collab.RID{Block: 1, Slot: 0}

	if err := idx.Insert(key, rid); err != nil {
		t.Fatalf("insert: %v", err)
	}

	newRID := collab.RID{Block: 2, Slot: 0}
	if err := idx.Update(key, rid, newRID); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := idx.Delete(key, rid); err == nil {
		t.Fatalf("expected old rid to be gone after update")
	}
	if err := idx.Delete(key, newRID); err != nil {
		t.Fatalf("expected new rid present after update: %v", err)
	}
}

func TestBTreeIndexMassDelete(t *testing.T) {
	idx := NewBTreeIndex(collab.IndexDef{Name: "pk", KeyCols: []int{0}})
	idx.Insert(collab.IndexKey{sql.Int64Value(1)}, collab.RID{Block: 1})
	idx.Insert(collab.IndexKey{sql.Int64Value(2)}, collab.RID{Block: 2})

	if err := idx.MassDelete(); err != nil {
		t.Fatalf("mass delete: %v", err)
	}
	if err := idx.Delete(collab.IndexKey{sql.Int64Value(1)}, collab.RID{Block: 1}); err == nil {
		t.Fatalf("expected index to be empty after mass delete")
	}
}

func TestBTreeIndexDuplicateKeysDistinctRIDs(t *testing.T) {
	idx := NewBTreeIndex(collab.IndexDef{Name: "secondary", KeyCols: []int{0}})
	key := collab.IndexKey{sql.Int64Value(5)}
	rid1 := collab.RID{Block: 1}
	rid2 := collab.RID{Block: 2}

	if err := idx.Insert(key, rid1); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(key, rid2); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete(key, rid1); err != nil {
		t.Fatalf("expected rid1 present: %v", err)
	}
	if err := idx.Delete(key, rid2); err != nil {
		t.Fatalf("expected rid2 still present after deleting rid1: %v", err)
	}
}
