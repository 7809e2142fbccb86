package xa

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shardsql/shardsql/txlog"
)

func newTestCoordinator(t *testing.T, bc Broadcaster) (*Coordinator, *txlog.Manager) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "xa.log")
	store := txlog.NewStore(1 << 30)
	mgr := txlog.NewManager(store, txlog.NewAllocator(), 10*time.Millisecond)
	return &Coordinator{Manager: mgr, Broadcaster: bc, File: path}, mgr
}

type fakeBroadcaster struct {
	allYes    bool
	committed []uint64
	aborted   []uint64
}

func (f *fakeBroadcaster) Prepare(tx uint64, hosts []string) bool { return f.allYes }
func (f *fakeBroadcaster) Phase2Commit(tx uint64, hosts []string) { f.committed = append(f.committed, tx) }
func (f *fakeBroadcaster) Phase2Abort(tx uint64, hosts []string)  { f.aborted = append(f.aborted, tx) }

func TestTryCommitAllYesWritesXACommit(t *testing.T) {
	bc := &fakeBroadcaster{allYes: true}
	co, mgr := newTestCoordinator(t, bc)

	if err := co.TryCommit(1, []string{"a", "b"}); err != nil {
		t.Fatalf("try commit: %v", err)
	}
	if len(bc.committed) != 1 || bc.committed[0] != 1 {
		t.Fatalf("expected phase2 commit invoked, got %v", bc.committed)
	}

	ok, err := co.AskXA(1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected AskXA to report committed")
	}
	_ = mgr
}

func TestTryCommitAnyNoWritesXAAbort(t *testing.T) {
	bc := &fakeBroadcaster{allYes: false}
	co, _ := newTestCoordinator(t, bc)

	if err := co.TryCommit(2, []string{"a", "b"}); err == nil {
		t.Fatalf("expected an error when a participant votes no")
	}
	if len(bc.aborted) != 1 || bc.aborted[0] != 2 {
		t.Fatalf("expected phase2 abort invoked, got %v", bc.aborted)
	}

	ok, err := co.AskXA(2)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected AskXA to report aborted")
	}
}

func TestAskXAWithNoRecordDefaultsToFalse(t *testing.T) {
	bc := &fakeBroadcaster{allYes: true}
	co, _ := newTestCoordinator(t, bc)

	ok, err := co.AskXA(999)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected AskXA with no record to default to rollback (false)")
	}
}
