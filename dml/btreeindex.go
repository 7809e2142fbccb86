package dml

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/shardsql/shardsql/collab"
)

// BTreeIndex is the default collab.Index implementation: an in-memory
// ordered index over google/btree, keyed by IndexKey with RID as the
// tie-breaker so duplicate keys coexist.
type BTreeIndex struct {
	def   collab.IndexDef
	mutex sync.Mutex
	tree  *btree.BTree
}

// NewBTreeIndex returns an unopened index for def.
func NewBTreeIndex(def collab.IndexDef) *BTreeIndex {
	return &BTreeIndex{def: def, tree: btree.New(32)}
}

type indexItem struct {
	key collab.IndexKey
	rid collab.RID
	asc []bool
}

func (a indexItem) Less(other btree.Item) bool {
	b := other.(indexItem)
	for i := 0; i < len(a.key) && i < len(b.key); i++ {
		c, err := a.key[i].Compare(b.key[i])
		if err != nil {
			continue
		}
		if c == 0 {
			continue
		}
		if i < len(a.asc) && !a.asc[i] {
			c = -c
		}
		return c < 0
	}
	return ridLess(a.rid, b.rid)
}

func ridLess(a, b collab.RID) bool {
	if a.Node != b.Node {
		return a.Node < b.Node
	}
	if a.Device != b.Device {
		return a.Device < b.Device
	}
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	return a.Slot < b.Slot
}

// Open is a no-op: the index is purely in-memory.
func (idx *BTreeIndex) Open() error { return nil }

// Insert adds (key, rid).
func (idx *BTreeIndex) Insert(key collab.IndexKey, rid collab.RID) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.tree.ReplaceOrInsert(indexItem{key: key, rid: rid, asc: idx.def.Ascending})
	return nil
}

// Delete removes (key, rid).
func (idx *BTreeIndex) Delete(key collab.IndexKey, rid collab.RID) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	item := idx.tree.Delete(indexItem{key: key, rid: rid, asc: idx.def.Ascending})
	if item == nil {
		return fmt.Errorf("dml: index %s: delete of (%v, %v) found nothing", idx.def.Name, key, rid)
	}
	return nil
}

// Update moves an entry from oldRID to newRID under the same key, or
// relocates the key itself if it changed along with the RID — the caller
// (the executor) decides which by comparing old/new keys; Update here just
// performs the RID substitution for the unchanged-key case.
func (idx *BTreeIndex) Update(key collab.IndexKey, oldRID, newRID collab.RID) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	old := idx.tree.Delete(indexItem{key: key, rid: oldRID, asc: idx.def.Ascending})
	if old == nil {
		return fmt.Errorf("dml: index %s: update of (%v, %v) found nothing", idx.def.Name, key, oldRID)
	}
	idx.tree.ReplaceOrInsert(indexItem{key: key, rid: newRID, asc: idx.def.Ascending})
	return nil
}

// MassDelete clears the whole index, used by MDELETE.
func (idx *BTreeIndex) MassDelete() error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.tree = btree.New(32)
	return nil
}
