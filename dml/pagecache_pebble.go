package dml

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/shardsql/shardsql/collab"
)

// PebblePageCache is the default collab.BufferPool: pages are fixed-size
// byte blobs keyed by block address and stored in an embedded pebble
// instance, with LSNs tracked in memory. It is a simplified stand-in for
// the real buffer pool collaborator (§6 treats the buffer pool as
// external); it satisfies the contract the transactional core needs
// without implementing a real page-replacement policy or the full
// WAL-before-write enforcement a production pool would add.
type PebblePageCache struct {
	db       *pebble.DB
	pageSize int

	mutex sync.Mutex
	lsns  map[string]uint64
	next  map[string]int64
}

// OpenPebblePageCache opens (creating if absent) a pebble store at dir.
func OpenPebblePageCache(dir string, pageSize int) (*PebblePageCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("dml: opening pebble page cache: %w", err)
	}
	return &PebblePageCache{
		db:       db,
		pageSize: pageSize,
		lsns:     map[string]uint64{},
		next:     map[string]int64{},
	}, nil
}

func pageKey(b collab.Block) []byte {
	return []byte(fmt.Sprintf("%s:%020d", b.Path, b.Number))
}

// Read returns block b, allocating a zeroed page of pageSize if it has
// never been written.
func (c *PebblePageCache) Read(b collab.Block) (*collab.Page, error) {
	val, closer, err := c.db.Get(pageKey(b))
	if err == pebble.ErrNotFound {
		return &collab.Page{Block: b, Buffer: make([]byte, c.pageSize)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dml: reading block %s: %w", b, err)
	}
	defer closer.Close()

	buf := make([]byte, len(val))
	copy(buf, val)

	c.mutex.Lock()
	lsn := c.lsns[string(pageKey(b))]
	c.mutex.Unlock()

	return &collab.Page{Block: b, LSN: lsn, Buffer: buf}, nil
}

// Write persists p's buffer.
func (c *PebblePageCache) Write(p *collab.Page) error {
	if err := c.db.Set(pageKey(p.Block), p.Buffer, pebble.Sync); err != nil {
		return fmt.Errorf("dml: writing block %s: %w", p.Block, err)
	}
	return c.SetPageLSN(p.Block, p.LSN)
}

// RequestPage is a no-op hint: pebble's own block cache already absorbs
// repeated reads of hot pages.
func (c *PebblePageCache) RequestPage(b collab.Block) error { return nil }

// RequestPages is a no-op hint, plural form.
func (c *PebblePageCache) RequestPages(bs []collab.Block) error { return nil }

// SetPageLSN records the LSN that last dirtied b.
func (c *PebblePageCache) SetPageLSN(b collab.Block, lsn uint64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lsns[string(pageKey(b))] = lsn
	return nil
}

// AllocateSlot hands out the next block number for table, one row per
// block (a simplification; a real page layout packs multiple rows per
// block, but the executor and index code above this layer are agnostic to
// how densely rows are packed).
func (c *PebblePageCache) AllocateSlot(table string, image []byte) (collab.RID, collab.Block, int32, error) {
	c.mutex.Lock()
	c.next[table]++
	n := c.next[table]
	c.mutex.Unlock()

	block := collab.Block{Path: table, Number: n}
	return collab.RID{Block: n, Slot: 0}, block, 0, nil
}

// ScanBlocks enumerates every block allocated to table by iterating
// pebble's sorted keyspace over the table's key prefix.
func (c *PebblePageCache) ScanBlocks(table string) ([]collab.Block, error) {
	prefix := []byte(table + ":")
	iter := c.db.NewIter(&pebble.IterOptions{})
	defer iter.Close()

	var blocks []collab.Block
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
			break
		}
		var n int64
		fmt.Sscanf(string(key[len(prefix):]), "%d", &n)
		blocks = append(blocks, collab.Block{Path: table, Number: n})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("dml: scanning blocks for %s: %w", table, err)
	}
	return blocks, nil
}

// Close releases the underlying pebble store.
func (c *PebblePageCache) Close() error {
	return c.db.Close()
}
