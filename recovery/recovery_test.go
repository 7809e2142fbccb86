package recovery

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shardsql/shardsql/txlog"
)

type fakePages struct {
	applied []string
}

func (f *fakePages) ApplyBytes(b txlog.Block, offset int32, image []byte, lsn uint64) error {
	f.applied = append(f.applied, string(image))
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *txlog.Manager, string, *fakePages) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	pages := &fakePages{}
	eng := &Engine{Manager: mgr, Pages: pages}
	return eng, mgr, path, pages
}

func TestRunRedoesCommittedInserts(t *testing.T) {
	eng, mgr, path, pages := newTestEngine(t)

	block := txlog.Block{Path: "t.dat", Number: 1}
	mgr.Write(txlog.NewStartRec(1), path)
	mgr.Insert(1, block, 0, nil, []byte("after-a"), path)
	mgr.Insert(1, block, 8, nil, []byte("after-b"), path)
	lsn := mgr.Write(txlog.NewCommitRec(1), path)
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(pages.applied) != 2 {
		t.Fatalf("expected 2 redo applications, got %d: %v", len(pages.applied), pages.applied)
	}
	if pages.applied[0] != "after-a" || pages.applied[1] != "after-b" {
		t.Fatalf("expected redo in forward order, got %v", pages.applied)
	}
}

func TestRunUndoesUncommittedInserts(t *testing.T) {
	eng, mgr, path, pages := newTestEngine(t)

	block := txlog.Block{Path: "t.dat", Number: 1}
	mgr.Write(txlog.NewStartRec(2), path)
	r1 := mgr.Insert(2, block, 0, []byte("before-a"), []byte("after-a"), path)
	lsn := r1.LSN()
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(pages.applied) != 1 || pages.applied[0] != "before-a" {
		t.Fatalf("expected uncommitted insert undone with before-image, got %v", pages.applied)
	}
}

type fixedAsker struct {
	commit bool
}

func (a fixedAsker) AskXA(tx uint64, host string) (bool, error) {
	return a.commit, nil
}

func TestRunResolvesReadyViaAsker(t *testing.T) {
	eng, mgr, path, pages := newTestEngine(t)
	eng.Asker = fixedAsker{commit: true}

	block := txlog.Block{Path: "t.dat", Number: 1}
	mgr.Write(txlog.NewStartRec(3), path)
	mgr.Insert(3, block, 0, nil, []byte("xa-after"), path)
	lsn := mgr.Write(txlog.NewReadyRec(3, "coord.example.com"), path)
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pages.applied) != 1 || pages.applied[0] != "xa-after" {
		t.Fatalf("expected redo of in-doubt-resolved-to-commit insert, got %v", pages.applied)
	}

	it, err := mgr.ForwardIterator(path)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	var sawCommit, sawNQCheck bool
	for {
		rec, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if rec.Type() == txlog.TypeCommit && rec.TxNum() == 3 {
			sawCommit = true
		}
		if rec.Type() == txlog.TypeNQCheck {
			sawNQCheck = true
		}
	}
	if !sawCommit {
		t.Fatalf("expected a durable Commit(3) record written during completion")
	}
	if !sawNQCheck {
		t.Fatalf("expected a trailing NQCheck barrier record")
	}
}

func TestRunRollsBackReadyWithNoAsker(t *testing.T) {
	eng, mgr, path, pages := newTestEngine(t)

	block := txlog.Block{Path: "t.dat", Number: 1}
	mgr.Write(txlog.NewStartRec(4), path)
	mgr.Insert(4, block, 0, []byte("orig"), []byte("xa-after"), path)
	lsn := mgr.Write(txlog.NewReadyRec(4, "coord.example.com"), path)
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pages.applied) != 0 {
		t.Fatalf("expected a Ready tx with no asker treated as rolled back (neither undone nor redone), got %v", pages.applied)
	}
}

type fixedBroadcaster struct {
	aborted    []uint64
	committed  []uint64
}

func (b *fixedBroadcaster) Phase2Commit(tx uint64, participants []string) error {
	b.committed = append(b.committed, tx)
	return nil
}

func (b *fixedBroadcaster) Phase2Abort(tx uint64, participants []string) error {
	b.aborted = append(b.aborted, tx)
	return nil
}

func TestRunAbortsOrphanPrepare(t *testing.T) {
	eng, mgr, path, _ := newTestEngine(t)
	bc := &fixedBroadcaster{}
	eng.Broadcast = bc

	lsn := mgr.Write(txlog.NewPrepareRec(5, []string{"host-a", "host-b"}), path)
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(bc.aborted) != 1 || bc.aborted[0] != 5 {
		t.Fatalf("expected orphan prepare resolved as abort, got aborted=%v committed=%v",
			bc.aborted, bc.committed)
	}
}

func TestRunResumesXACommitDecision(t *testing.T) {
	eng, mgr, path, _ := newTestEngine(t)
	bc := &fixedBroadcaster{}
	eng.Broadcast = bc

	mgr.Write(txlog.NewPrepareRec(6, []string{"host-a"}), path)
	lsn := mgr.Write(txlog.NewXACommitRec(6, []string{"host-a"}), path)
	if err := mgr.Flush(path, lsn); err != nil {
		t.Fatal(err)
	}

	if err := eng.Run(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(bc.committed) != 1 || bc.committed[0] != 6 {
		t.Fatalf("expected xa commit decision resumed, got aborted=%v committed=%v",
			bc.aborted, bc.committed)
	}
	if len(bc.aborted) != 0 {
		t.Fatalf("prepare with a matching xa commit must not also abort, got %v", bc.aborted)
	}
}
