package txn

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shardsql/shardsql/collab"
	"github.com/shardsql/shardsql/txlog"
)

// fakePool is a minimal in-memory buffer pool for exercising Transaction
// without a real page-layout implementation.
type fakePool struct {
	pages map[string]*collab.Page
	next  int64
}

func newFakePool() *fakePool {
	return &fakePool{pages: map[string]*collab.Page{}}
}

func (p *fakePool) key(b collab.Block) string { return fmt.Sprintf("%s:%d", b.Path, b.Number) }

func (p *fakePool) Read(b collab.Block) (*collab.Page, error) {
	pg, ok := p.pages[p.key(b)]
	if !ok {
		pg = &collab.Page{Block: b, Buffer: make([]byte, 64)}
		p.pages[p.key(b)] = pg
	}
	return pg, nil
}

func (p *fakePool) Write(pg *collab.Page) error {
	p.pages[p.key(pg.Block)] = pg
	return nil
}

func (p *fakePool) RequestPage(b collab.Block) error   { return nil }
func (p *fakePool) RequestPages(bs []collab.Block) error { return nil }
func (p *fakePool) SetPageLSN(b collab.Block, lsn uint64) error {
	pg, err := p.Read(b)
	if err != nil {
		return err
	}
	pg.LSN = lsn
	return nil
}

func (p *fakePool) AllocateSlot(table string, image []byte) (collab.RID, collab.Block, int32, error) {
	p.next++
	block := collab.Block{Path: table, Number: p.next}
	return collab.RID{Block: p.next, Slot: 0}, block, 0, nil
}

func (p *fakePool) ScanBlocks(table string) ([]collab.Block, error) {
	var blocks []collab.Block
	for _, pg := range p.pages {
		if pg.Block.Path == table {
			blocks = append(blocks, pg.Block)
		}
	}
	return blocks, nil
}

// recordingPool wraps fakePool and appends an event for every Write and
// SetPageLSN call it sees. LogWrite calls SetPageLSN immediately after its
// record has been written and flushed, so "setlsn" landing before "write"
// in the trace is exactly the WAL-ordering guarantee (log before data).
type recordingPool struct {
	*fakePool
	events *[]string
}

func newRecordingPool() *recordingPool {
	events := []string{}
	return &recordingPool{fakePool: newFakePool(), events: &events}
}

func (p *recordingPool) Write(pg *collab.Page) error {
	*p.events = append(*p.events, "write:"+p.key(pg.Block))
	return p.fakePool.Write(pg)
}

func (p *recordingPool) SetPageLSN(b collab.Block, lsn uint64) error {
	*p.events = append(*p.events, "setlsn:"+p.key(b))
	return p.fakePool.SetPageLSN(b, lsn)
}

func firstIndex(events []string, prefix string) int {
	for i, e := range events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}

func TestInsertRowLogsBeforeWritingPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	pool := newRecordingPool()
	tx := New(1, ReadCommitted, mgr, path, pool)

	if _, err := tx.InsertRow("t1.dat", []byte("hello")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	setlsn := firstIndex(*pool.events, "setlsn:")
	write := firstIndex(*pool.events, "write:")
	if setlsn == -1 || write == -1 {
		t.Fatalf("expected both a setlsn and a write event, got %v", *pool.events)
	}
	if setlsn > write {
		t.Fatalf("expected LogWrite (setlsn) before the page write, got %v", *pool.events)
	}
}

func TestDeleteRowLogsBeforeWritingPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	pool := newRecordingPool()
	tx := New(1, ReadCommitted, mgr, path, pool)

	rid, err := tx.InsertRow("t1.dat", []byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	block := collab.Block{Path: "t1.dat", Number: rid.Block}
	*pool.events = nil

	if err := tx.DeleteRow(rid, block, 0, []byte("hello")); err != nil {
		t.Fatalf("delete: %v", err)
	}

	setlsn := firstIndex(*pool.events, "setlsn:")
	write := firstIndex(*pool.events, "write:")
	if setlsn == -1 || write == -1 {
		t.Fatalf("expected both a setlsn and a write event, got %v", *pool.events)
	}
	if setlsn > write {
		t.Fatalf("expected LogWrite (setlsn) before the page write, got %v", *pool.events)
	}
}

func TestUpdateRowInPlaceLogsBeforeWritingPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	pool := newRecordingPool()
	tx := New(1, ReadCommitted, mgr, path, pool)

	rid, err := tx.InsertRow("t1.dat", []byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	block := collab.Block{Path: "t1.dat", Number: rid.Block}
	*pool.events = nil

	if _, err := tx.UpdateRow(rid, block, 0, []byte("hello"), []byte("world")); err != nil {
		t.Fatalf("update: %v", err)
	}

	setlsn := firstIndex(*pool.events, "setlsn:")
	write := firstIndex(*pool.events, "write:")
	if setlsn == -1 || write == -1 {
		t.Fatalf("expected both a setlsn and a write event, got %v", *pool.events)
	}
	if setlsn > write {
		t.Fatalf("expected LogWrite (setlsn) before the page write, got %v", *pool.events)
	}
}

func newTestTxn(t *testing.T, id uint64) (*Transaction, *txlog.Manager, string, *fakePool) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	pool := newFakePool()
	return New(id, ReadCommitted, mgr, path, pool), mgr, path, pool
}

func TestInsertRowThenCommit(t *testing.T) {
	tx, mgr, path, pool := newTestTxn(t, 1)

	rid, err := tx.InsertRow("t1.dat", []byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	block := collab.Block{Path: "t1.dat", Number: rid.Block}
	page, _ := pool.Read(block)
	if string(page.Buffer[:5]) != "hello" {
		t.Fatalf("expected page to contain inserted row, got %q", page.Buffer[:5])
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	var sawInsert, sawCommit bool
	for {
		rec, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if rec.Type() == txlog.TypeInsert {
			sawInsert = true
		}
		if rec.Type() == txlog.TypeCommit {
			sawCommit = true
		}
	}
	if !sawInsert || !sawCommit {
		t.Fatalf("expected both an Insert and a Commit record, sawInsert=%v sawCommit=%v", sawInsert, sawCommit)
	}
}

func TestRollbackUndoesInsert(t *testing.T) {
	tx, _, _, pool := newTestTxn(t, 2)

	rid, err := tx.InsertRow("t1.dat", []byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	block := collab.Block{Path: "t1.dat", Number: rid.Block}
	page, _ := pool.Read(block)
	if string(page.Buffer[:5]) != "hello" {
		t.Fatalf("expected row present before rollback")
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	page, _ = pool.Read(block)
	for _, b := range page.Buffer[:5] {
		if b != 0 {
			t.Fatalf("expected undo to restore the zeroed before-image, got %v", page.Buffer[:5])
		}
	}
}

func TestReadOnlyTransactionNeverWritesLog(t *testing.T) {
	tx, mgr, path, _ := newTestTxn(t, 3)

	if _, err := tx.Read(collab.Block{Path: "t1.dat", Number: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	_, ok, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected a read-only transaction to write nothing to the log")
	}
}
