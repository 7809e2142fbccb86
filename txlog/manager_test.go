package txlog

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := NewStore(1 << 30)
	mgr := NewManager(store, NewAllocator(), 10*time.Millisecond)
	return mgr, path
}

func TestWriteThenFlushPersists(t *testing.T) {
	mgr, path := newTestManager(t)

	rec := NewCommitRec(1)
	lsn := mgr.Write(rec, path)
	if lsn == 0 {
		t.Fatalf("expected nonzero lsn")
	}

	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatalf("flush: %v", err)
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	got, ok, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected one persisted record")
	}
	if got.Type() != TypeCommit || got.TxNum() != 1 {
		t.Fatalf("got %v, want Commit(1)", got)
	}
}

func TestFlushStopsAtFirstHigherLSN(t *testing.T) {
	mgr, path := newTestManager(t)

	l1 := mgr.Write(NewStartRec(1), path)
	mgr.Write(NewStartRec(2), path)
	mgr.Write(NewStartRec(3), path)

	if err := mgr.Flush(path, l1); err != nil {
		t.Fatal(err)
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	count := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 flushed record, got %d", count)
	}
}

func TestCommitIsSynchronousDurabilityBoundary(t *testing.T) {
	mgr, path := newTestManager(t)

	if err := mgr.Commit(7, path); err != nil {
		t.Fatalf("commit: %v", err)
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	rec, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("expected commit record persisted immediately, err=%v ok=%v", err, ok)
	}
	if rec.Type() != TypeCommit || rec.TxNum() != 7 {
		t.Fatalf("got %v", rec)
	}
}

func TestRollbackUndoesInsertsUntilStart(t *testing.T) {
	mgr, path := newTestManager(t)

	block := Block{Path: "t.dat", Number: 1}
	mgr.Write(NewStartRec(5), path)
	r1 := mgr.Insert(5, block, 0, nil, []byte("a"), path)
	r2 := mgr.Insert(5, block, 8, nil, []byte("b"), path)
	last := r2.LSN()
	if err := mgr.Flush(path, last); err != nil {
		t.Fatal(err)
	}
	_ = r1

	var undone []Record
	err := mgr.Rollback(5, path, func(rec Record) error {
		undone = append(undone, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if len(undone) != 2 {
		t.Fatalf("expected 2 records undone, got %d", len(undone))
	}
	// undo walks backward: r2 first, then r1.
	if undone[0].LSN() != r2.LSN() {
		t.Fatalf("expected reverse order undo, first undone lsn=%d want %d",
			undone[0].LSN(), r2.LSN())
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	var sawRollback bool
	for {
		rec, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if rec.Type() == TypeRollback && rec.TxNum() == 5 {
			sawRollback = true
		}
	}
	if !sawRollback {
		t.Fatalf("expected a persisted Rollback(5) record")
	}
}

func TestBackgroundFlushDrainsTail(t *testing.T) {
	mgr, path := newTestManager(t)
	mgr.StartBackgroundFlush()
	defer mgr.Stop()

	mgr.Write(NewStartRec(1), path)
	mgr.Write(NewCommitRec(1), path)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		it, err := mgr.ForwardIterator(path)
		if err != nil {
			t.Fatal(err)
		}
		count := 0
		for {
			_, ok, err := it.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				break
			}
			count++
		}
		it.Close()
		if count == 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("background flush did not drain both records in time")
}

func TestAttachLogInvokesOnAttach(t *testing.T) {
	mgr, path := newTestManager(t)
	dir := filepath.Dir(path)
	second := filepath.Join(dir, "second.log")

	var attached string
	mgr.OnAttach = func(p string) { attached = p }

	if err := mgr.AttachLog(second); err != nil {
		t.Fatal(err)
	}
	if attached != second {
		t.Fatalf("OnAttach called with %q, want %q", attached, second)
	}
}
