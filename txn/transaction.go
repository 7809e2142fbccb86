// Package txn implements the local transaction (C7): isolation-level
// bookkeeping, page access through the buffer-pool collaborator, and the
// write path's undo/redo logging through C3.
package txn

import (
	"fmt"
	"sync"

	"github.com/shardsql/shardsql/collab"
	"github.com/shardsql/shardsql/txlog"
)

// Isolation is one of the two levels this node supports.
type Isolation int

const (
	ReadCommitted Isolation = iota
	CursorStability
)

func (i Isolation) String() string {
	if i == CursorStability {
		return "CURSOR_STABILITY"
	}
	return "READ_COMMITTED"
}

// RIDChange reports that update_row relocated a row to a new RID because
// its new image no longer fit in its old slot.
type RIDChange struct {
	Old, New collab.RID
	Moved    bool
}

// Transaction tracks one local transaction's isolation level and drives
// C3 writes for every page mutation it makes.
type Transaction struct {
	ID        uint64
	Isolation Isolation

	manager *txlog.Manager
	file    string
	pool    collab.BufferPool

	startMutex sync.Mutex
	started    bool
}

// New starts a transaction: writes and flushes nothing yet (a Start record
// is written lazily on first mutation, matching the source's
// write-on-first-use behavior — an empty, read-only transaction never
// touches the log).
func New(id uint64, isolation Isolation, manager *txlog.Manager, file string, pool collab.BufferPool) *Transaction {
	return &Transaction{ID: id, Isolation: isolation, manager: manager, file: file, pool: pool}
}

func (t *Transaction) toTxlogBlock(b collab.Block) txlog.Block {
	return txlog.Block{Path: b.Path, Number: uint64(b.Number)}
}

func (t *Transaction) toCollabBlock(b txlog.Block) collab.Block {
	return collab.Block{Path: b.Path, Number: int64(b.Number)}
}

// Read reads a page through the buffer pool.
func (t *Transaction) Read(b collab.Block) (*collab.Page, error) {
	return t.pool.Read(b)
}

// RequestPage hints that b will be needed soon.
func (t *Transaction) RequestPage(b collab.Block) error {
	return t.pool.RequestPage(b)
}

// RequestPages hints that every block in bs will be needed soon.
func (t *Transaction) RequestPages(bs []collab.Block) error {
	return t.pool.RequestPages(bs)
}

// ensureStarted writes the transaction's Start record on first use. It is
// safe to call concurrently: C8 runs one worker goroutine per device
// sharing a single Transaction.
func (t *Transaction) ensureStarted() {
	t.startMutex.Lock()
	defer t.startMutex.Unlock()
	if !t.started {
		t.manager.Write(txlog.NewStartRec(t.ID), t.file)
		t.started = true
	}
}

func (t *Transaction) isStarted() bool {
	t.startMutex.Lock()
	defer t.startMutex.Unlock()
	return t.started
}

// LogWrite writes the undo/redo record for one physical byte-range
// mutation at (block, offset), flushes the log through that record, and
// then advances the page's LSN via the buffer pool's SetPageLSN. isInsert
// selects the record's semantic type (pure insert vs. pure delete vs. an
// in-place update, which carries both a before and an after image); all
// three share the same physical Insert/Delete record shape.
func (t *Transaction) LogWrite(b collab.Block, offset int32, before, after []byte, isInsert bool) (uint64, error) {
	t.ensureStarted()
	tb := t.toTxlogBlock(b)

	var lsn uint64
	if isInsert {
		rec := t.manager.Insert(t.ID, tb, offset, before, after, t.file)
		lsn = rec.LSN()
	} else {
		rec := t.manager.Delete(t.ID, tb, offset, before, after, t.file)
		lsn = rec.LSN()
	}
	if err := t.manager.Flush(t.file, lsn); err != nil {
		return lsn, fmt.Errorf("txn: flushing log: %w", err)
	}

	if err := t.pool.SetPageLSN(b, lsn); err != nil {
		return lsn, fmt.Errorf("txn: setting page lsn: %w", err)
	}
	return lsn, nil
}

// InsertRow allocates a slot for image via the buffer pool, applies it,
// and logs the insert.
func (t *Transaction) InsertRow(table string, image []byte) (collab.RID, error) {
	rid, block, offset, err := t.pool.AllocateSlot(table, image)
	if err != nil {
		return collab.RID{}, fmt.Errorf("txn: allocating slot: %w", err)
	}

	page, err := t.pool.Read(block)
	if err != nil {
		return collab.RID{}, err
	}
	before := make([]byte, len(image))
	if int(offset) < len(page.Buffer) {
		copy(before, page.Buffer[offset:])
	}
	if _, err := t.LogWrite(block, offset, before, image, true); err != nil {
		return collab.RID{}, err
	}
	applyBytes(page, offset, image)
	if err := t.pool.Write(page); err != nil {
		return collab.RID{}, err
	}
	return rid, nil
}

// DeleteRow overwrites rid's slot with a zeroed tombstone image of the
// same length and logs the delete. oldImage is the row's current bytes,
// needed as the undo image.
func (t *Transaction) DeleteRow(rid collab.RID, block collab.Block, offset int32, oldImage []byte) error {
	page, err := t.pool.Read(block)
	if err != nil {
		return err
	}
	tomb := make([]byte, len(oldImage))
	if _, err := t.LogWrite(block, offset, oldImage, tomb, false); err != nil {
		return err
	}
	applyBytes(page, offset, tomb)
	return t.pool.Write(page)
}

// UpdateRow overwrites rid's slot in place with newImage when it fits,
// logging a single before/after record. When newImage is longer than the
// slot it currently occupies, UpdateRow deletes the old RID and inserts the
// new image instead, reporting RIDChange.Moved.
func (t *Transaction) UpdateRow(rid collab.RID, block collab.Block, offset int32, oldImage, newImage []byte) (RIDChange, error) {
	if len(newImage) > len(oldImage) {
		if err := t.DeleteRow(rid, block, offset, oldImage); err != nil {
			return RIDChange{}, err
		}
		newRID, err := t.InsertRow(blockTable(block), newImage)
		if err != nil {
			return RIDChange{}, err
		}
		return RIDChange{Old: rid, New: newRID, Moved: true}, nil
	}

	page, err := t.pool.Read(block)
	if err != nil {
		return RIDChange{}, err
	}
	padded := make([]byte, len(oldImage))
	copy(padded, newImage)
	if _, err := t.LogWrite(block, offset, oldImage, padded, true); err != nil {
		return RIDChange{}, err
	}
	applyBytes(page, offset, padded)
	if err := t.pool.Write(page); err != nil {
		return RIDChange{}, err
	}
	return RIDChange{Old: rid, New: rid, Moved: false}, nil
}

func blockTable(b collab.Block) string { return b.Path }

func applyBytes(page *collab.Page, offset int32, image []byte) {
	if int(offset)+len(image) > len(page.Buffer) {
		grown := make([]byte, int(offset)+len(image))
		copy(grown, page.Buffer)
		page.Buffer = grown
	}
	copy(page.Buffer[offset:], image)
}

// Commit durably writes this transaction's Commit record.
func (t *Transaction) Commit() error {
	if !t.isStarted() {
		return nil
	}
	return t.manager.Commit(t.ID, t.file)
}

// Rollback undoes every Insert/Delete record this transaction wrote, then
// durably writes a Rollback record.
func (t *Transaction) Rollback() error {
	if !t.isStarted() {
		return nil
	}
	writer := poolPageWriter{pool: t.pool}
	return t.manager.Rollback(t.ID, t.file, func(rec txlog.Record) error {
		return txlog.Undo(rec, writer)
	})
}

// poolPageWriter adapts a collab.BufferPool into a txlog.PageWriter,
// bridging the collab.Block (int64 block numbers) and txlog.Block (uint64
// block numbers) address spaces. This is the one place that conversion
// happens; txlog itself never imports collab.
type poolPageWriter struct {
	pool collab.BufferPool
}

// NewPoolPageWriter exposes the collab.BufferPool->txlog.PageWriter bridge
// to callers outside this package, such as a recovery engine or a worker
// node's rollback handler that needs to apply log images without an open
// Transaction.
func NewPoolPageWriter(pool collab.BufferPool) txlog.PageWriter {
	return poolPageWriter{pool: pool}
}

func (w poolPageWriter) ApplyBytes(b txlog.Block, offset int32, image []byte, lsn uint64) error {
	cb := collab.Block{Path: b.Path, Number: int64(b.Number)}
	page, err := w.pool.Read(cb)
	if err != nil {
		return err
	}
	applyBytes(page, offset, image)
	page.LSN = lsn
	if err := w.pool.Write(page); err != nil {
		return err
	}
	return w.pool.SetPageLSN(cb, lsn)
}
