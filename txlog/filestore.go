package txlog

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// fileHandle is one entry in the open-files registry: a write-through file
// descriptor guarded by its own mutex, plus the byte offset one past the
// last complete record (the "end of file" a concurrent iterator snapshots).
type fileHandle struct {
	mutex sync.Mutex // serializes positional writes to this file
	file  *os.File
	size  int64
}

// Store is the append-only framed log file store (C2). Every record is
// written as `u32 size | payload | u32 size`, the length prefix and suffix
// making iteration bidirectional. It owns the open-files registry and
// triggers archival when a file's size exceeds TargetSize.
//
// Lock order: registry mutex, then a file's own mutex. Never the reverse.
type Store struct {
	mutex    sync.Mutex // protects the registry map: insert-if-absent
	registry map[string]*fileHandle

	TargetSize int64

	archiveMutex sync.Mutex
	archiveOn    bool
	// Archive is invoked (in its own goroutine) when a file crosses
	// TargetSize. It is nil by default: archival is opt-in per deployment
	// (e.g. cmd wires it to BboltArchiver.Archive, which copies the file
	// into a segment store and truncates it). The original ArchiverThread is represented here as a
	// caller-supplied callback rather than a hardcoded archival policy.
	Archive func(store *Store, path string)
}

// NewStore creates a file store with archival enabled by default.
func NewStore(targetSize int64) *Store {
	return &Store{
		registry:   map[string]*fileHandle{},
		TargetSize: targetSize,
		archiveOn:  true,
	}
}

// SetArchiveEnabled toggles whether crossing TargetSize schedules an
// archive run. Tests disable this the same way the original noArchive flag
// does, to observe the active file growing past TargetSize deterministically.
func (s *Store) SetArchiveEnabled(on bool) {
	s.archiveMutex.Lock()
	defer s.archiveMutex.Unlock()
	s.archiveOn = on
}

func (s *Store) archiveEnabled() bool {
	s.archiveMutex.Lock()
	defer s.archiveMutex.Unlock()
	return s.archiveOn
}

// getFile returns the registry entry for path, creating and opening it
// write-through if this is the first reference.
func (s *Store) getFile(path string) (*fileHandle, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	fh, ok := s.registry[path]
	if ok {
		return fh, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("txlog: opening log file %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("txlog: stat log file %s: %w", path, err)
	}

	fh = &fileHandle{file: f, size: fi.Size()}
	s.registry[path] = fh
	return fh, nil
}

// Size returns the current end-of-file offset for path, 0 if the file has
// never been opened by this store.
func (s *Store) Size(path string) int64 {
	s.mutex.Lock()
	fh, ok := s.registry[path]
	s.mutex.Unlock()
	if !ok {
		return 0
	}
	fh.mutex.Lock()
	defer fh.mutex.Unlock()
	return fh.size
}

// Append writes one framed record to the end of path and returns the byte
// offset it was written at. Every write is followed by Sync so durability
// is established before Append returns (write-through semantics).
func (s *Store) Append(path string, payload []byte) (int64, error) {
	fh, err := s.getFile(path)
	if err != nil {
		return 0, err
	}

	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(payload)))

	fh.mutex.Lock()
	offset := fh.size
	if _, err := fh.file.WriteAt(sizeBuf[:], offset); err != nil {
		fh.mutex.Unlock()
		return 0, fmt.Errorf("txlog: writing size prefix to %s: %w", path, err)
	}
	if _, err := fh.file.WriteAt(payload, offset+4); err != nil {
		fh.mutex.Unlock()
		return 0, fmt.Errorf("txlog: writing payload to %s: %w", path, err)
	}
	if _, err := fh.file.WriteAt(sizeBuf[:], offset+4+int64(len(payload))); err != nil {
		fh.mutex.Unlock()
		return 0, fmt.Errorf("txlog: writing size suffix to %s: %w", path, err)
	}
	if err := fh.file.Sync(); err != nil {
		fh.mutex.Unlock()
		return 0, fmt.Errorf("txlog: fsync %s: %w", path, err)
	}
	fh.size = offset + 8 + int64(len(payload))
	newSize := fh.size
	fh.mutex.Unlock()

	if newSize > s.TargetSize && s.archiveEnabled() && s.Archive != nil {
		go s.Archive(s, path)
	}

	return offset, nil
}

// Iterator yields framed records from a log file. It must be closed.
type Iterator interface {
	Next() ([]byte, bool, error)
	Close() error
}

// ScanForward returns a restartable iterator that reads records in
// ascending offset order, stopping at the offset the file had when the
// iterator was created (a snapshot, so concurrent appends are invisible to
// an in-flight iteration, per §4.3).
func (s *Store) ScanForward(path string) (Iterator, error) {
	fh, err := s.getFile(path)
	if err != nil {
		return nil, err
	}
	fh.mutex.Lock()
	end := fh.size
	fh.mutex.Unlock()

	return &forwardIter{fh: fh, pos: 0, end: end}, nil
}

// ScanBackward returns a restartable iterator that reads records in
// descending offset order from the same snapshot rule as ScanForward.
func (s *Store) ScanBackward(path string) (Iterator, error) {
	fh, err := s.getFile(path)
	if err != nil {
		return nil, err
	}
	fh.mutex.Lock()
	end := fh.size
	fh.mutex.Unlock()

	return &backwardIter{fh: fh, pos: end}, nil
}

type forwardIter struct {
	fh  *fileHandle
	pos int64
	end int64
}

func (it *forwardIter) Next() ([]byte, bool, error) {
	if it.pos >= it.end {
		return nil, false, nil
	}

	var sizeBuf [4]byte
	if _, err := it.fh.file.ReadAt(sizeBuf[:], it.pos); err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("txlog: reading size prefix at %d: %w", it.pos, err)
	}
	size := binary.BigEndian.Uint32(sizeBuf[:])

	payload := make([]byte, size)
	if size > 0 {
		if _, err := it.fh.file.ReadAt(payload, it.pos+4); err != nil && err != io.EOF {
			return nil, false, fmt.Errorf("txlog: reading payload at %d: %w", it.pos+4, err)
		}
	}

	it.pos += 8 + int64(size)
	return payload, true, nil
}

func (it *forwardIter) Close() error { return nil }

type backwardIter struct {
	fh  *fileHandle
	pos int64 // one past the record we will read next
}

func (it *backwardIter) Next() ([]byte, bool, error) {
	if it.pos <= 0 {
		return nil, false, nil
	}

	var sizeBuf [4]byte
	if _, err := it.fh.file.ReadAt(sizeBuf[:], it.pos-4); err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("txlog: reading size suffix at %d: %w", it.pos-4, err)
	}
	size := binary.BigEndian.Uint32(sizeBuf[:])

	start := it.pos - 8 - int64(size)
	if start < 0 {
		return nil, false, fmt.Errorf("txlog: corrupt log, negative record start at %d", it.pos)
	}

	payload := make([]byte, size)
	if size > 0 {
		if _, err := it.fh.file.ReadAt(payload, start+4); err != nil && err != io.EOF {
			return nil, false, fmt.Errorf("txlog: reading payload at %d: %w", start+4, err)
		}
	}

	it.pos = start
	return payload, true, nil
}

func (it *backwardIter) Close() error { return nil }

// Close releases every open file descriptor. Intended for shutdown only.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var firstErr error
	for path, fh := range s.registry {
		if err := fh.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("txlog: closing %s: %w", path, err)
		}
	}
	s.registry = map[string]*fileHandle{}
	if firstErr != nil {
		log.WithField("error", firstErr.Error()).Error("txlog: error closing log store")
	}
	return firstErr
}
