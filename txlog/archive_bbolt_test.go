package txlog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBboltArchiverMovesBytesAndTruncatesActiveFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(1 << 20)
	archiver := NewBboltArchiver(dir)
	defer archiver.Close()

	path := filepath.Join(dir, "active.log")
	if _, err := store.Append(path, []byte("first")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(path, []byte("second")); err != nil {
		t.Fatalf("append: %v", err)
	}

	sizeBefore := store.Size(path)
	if sizeBefore == 0 {
		t.Fatalf("expected non-empty active file before archiving")
	}

	archiver.Archive(store, path)

	if got := store.Size(path); got != 0 {
		t.Fatalf("expected active file truncated after archive, size=%d", got)
	}

	segs, err := archiver.Segments(path)
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 archived segment, got %d", len(segs))
	}
	if int64(len(segs[0])) != sizeBefore {
		t.Fatalf("archived segment size %d, want %d", len(segs[0]), sizeBefore)
	}
}

func TestBboltArchiverAppendsSubsequentSegments(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(1 << 20)
	archiver := NewBboltArchiver(dir)
	defer archiver.Close()

	path := filepath.Join(dir, "active.log")
	if _, err := store.Append(path, []byte("round-one")); err != nil {
		t.Fatalf("append: %v", err)
	}
	archiver.Archive(store, path)

	if _, err := store.Append(path, []byte("round-two")); err != nil {
		t.Fatalf("append: %v", err)
	}
	archiver.Archive(store, path)

	segs, err := archiver.Segments(path)
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 archived segments across two rounds, got %d", len(segs))
	}
}

func TestStoreTriggersArchiveOnceSizeCrossesTarget(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(8)
	archiver := NewBboltArchiver(dir)
	defer archiver.Close()
	store.Archive = archiver.Archive

	path := filepath.Join(dir, "active.log")
	if _, err := store.Append(path, []byte("exceeds-target-size")); err != nil {
		t.Fatalf("append: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for store.Size(path) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := store.Size(path); got != 0 {
		t.Fatalf("expected background archive to truncate active file, size=%d", got)
	}
}
