// Package collab defines the contracts the transactional core requires of
// components that are otherwise out of scope: the buffer pool, the
// secondary index structures, and the metadata catalog. The core only ever
// talks to these through the interfaces below.
package collab

import (
	"fmt"

	"github.com/shardsql/shardsql/sql"
)

// Block identifies a fixed-size page on a device: a file path and a block
// number within that file.
type Block struct {
	Path   string
	Number int64
}

func (b Block) String() string {
	return fmt.Sprintf("%s:%d", b.Path, b.Number)
}

// RID is a globally unique record identifier: the worker node that owns the
// row, the device (storage directory) on that node, the block within the
// device, and the slot within the block.
type RID struct {
	Node   int32
	Device int32
	Block  int64
	Slot   int32
}

func (r RID) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Node, r.Device, r.Block, r.Slot)
}

// Page is an opaque, fixed-size block of bytes plus the LSN of the last log
// record that made it dirty. The buffer pool is the only thing that
// interprets the byte layout; the core treats pages as opaque except for
// reading/writing a byte range at an offset.
type Page struct {
	Block  Block
	LSN    uint64
	Buffer []byte
}

// BufferPool is the collaborator that owns data pages. Before writing a
// dirty page to disk it must have flushed the log up to the page's LSN
// (the WAL rule, invariant 2); that ordering is the buffer pool's
// responsibility, not the core's, but the core supplies the LSN it must
// honor via SetPageLSN.
type BufferPool interface {
	Read(b Block) (*Page, error)
	Write(p *Page) error

	// RequestPage/RequestPages hint that these blocks will be needed soon,
	// so the pool can prefetch them ahead of actual reads.
	RequestPage(b Block) error
	RequestPages(bs []Block) error

	// SetPageLSN records the LSN of the log record that last modified the
	// page; the pool must not let the page reach disk until the log has
	// been flushed to at least this LSN.
	SetPageLSN(b Block, lsn uint64) error

	// AllocateSlot reserves space for a new row image within table's
	// storage and returns where it landed. Free-space bookkeeping and page
	// layout are the pool's responsibility (§6); the core never chooses a
	// block/offset for an insert itself.
	AllocateSlot(table string, image []byte) (RID, Block, int32, error)

	// ScanBlocks enumerates every block currently allocated to table, in
	// no particular order. Used by MDELETE's prefetch pipeline to drive a
	// full-table scan without the core needing its own free-space map.
	ScanBlocks(table string) ([]Block, error)
}

// IndexKey is the tuple of column values making up a secondary index key.
type IndexKey []sql.Value

// Index is the collaborator contract for a single secondary index.
type Index interface {
	Open() error
	Insert(key IndexKey, rid RID) error
	Delete(key IndexKey, rid RID) error
	Update(key IndexKey, oldRID, newRID RID) error
	MassDelete() error
}

// IndexDef names one secondary index: its key columns, their types, and
// whether each sorts ascending.
type IndexDef struct {
	Name      string
	KeyCols   []int
	Ascending []bool
}

// Metadata is the catalog collaborator: host/device resolution and
// partitioning decisions that the DML executor and tree dispatcher rely on,
// but never compute themselves.
type Metadata interface {
	HostNameForNode(node int32) (string, error)
	DevicePath(node, device int32) (string, error)
	DetermineDevice(row []sql.Value, partitionMeta interface{}) (int32, error)
	IndexesForTable(database, schema, table string) ([]IndexDef, error)
}
