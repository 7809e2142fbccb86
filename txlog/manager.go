package txlog

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// tail is the FIFO of records written but not yet flushed to disk for one
// log file, protected by its own mutex (§5: "the log tail for each file is
// protected by a dedicated mutex").
type tail struct {
	mutex sync.Mutex
	recs  []Record
}

// Manager is the log manager (C3): it allocates LSNs, batches writes into a
// per-file in-memory tail, flushes to the file store, and serves restartable
// iterators over persisted records. A single background goroutine drains
// every file's tail, matching the original's single-threaded LogManager
// scheduling (one head record per file per loop iteration, sleeping only
// when every tail was empty that round).
type Manager struct {
	alloc *Allocator
	store *Store

	tailsMutex sync.Mutex // protects the tails registry: insert-if-absent
	tails      map[string]*tail

	SleepInterval time.Duration

	// OnAttach is invoked synchronously after AttachLog registers a new
	// file, so a recovery pass can run against it before it accepts
	// writes from other goroutines. Left nil, AttachLog just registers.
	OnAttach func(path string)

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewManager creates a log manager over store that takes its LSNs from
// alloc.
func NewManager(store *Store, alloc *Allocator, sleep time.Duration) *Manager {
	return &Manager{
		alloc:         alloc,
		store:         store,
		tails:         map[string]*tail{},
		SleepInterval: sleep,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

func (m *Manager) getTail(file string) *tail {
	m.tailsMutex.Lock()
	defer m.tailsMutex.Unlock()

	t, ok := m.tails[file]
	if !ok {
		t = &tail{}
		m.tails[file] = t
	}
	return t
}

// AttachLog registers a new log file (the "ADD LOG <path>" runtime message,
// §9 supplement 1) and, if OnAttach is set, invokes it synchronously so
// recovery can run before the file is exposed to other writers.
func (m *Manager) AttachLog(path string) error {
	if _, err := m.store.getFile(path); err != nil {
		return err
	}
	m.getTail(path)
	if m.OnAttach != nil {
		m.OnAttach(path)
	}
	return nil
}

// Write assigns an LSN to rec, timestamps it, and appends it to file's
// in-memory tail under the tail's lock. It does not flush.
func (m *Manager) Write(rec Record, file string) uint64 {
	t := m.getTail(file)
	t.mutex.Lock()
	lsn := m.alloc.Next()
	rec.setLSN(lsn)
	rec.setTimestamp(time.Now().UnixMilli())
	t.recs = append(t.recs, rec)
	t.mutex.Unlock()
	return lsn
}

// Flush appends every tail record with LSN <= upTo to file, in LSN order,
// stopping at the first record with a higher LSN (the chosen resolution of
// the "all vs exactly one" ambiguity, §9). An I/O error here is fatal: it
// propagates to the caller, which for the background drain loop means
// terminating the loop (the log manager cannot silently ignore a write
// failure).
func (m *Manager) Flush(file string, upTo uint64) error {
	t := m.getTail(file)
	t.mutex.Lock()
	defer t.mutex.Unlock()

	i := 0
	for i < len(t.recs) {
		rec := t.recs[i]
		if rec.LSN() > upTo {
			break
		}
		if _, err := m.store.Append(file, EncodePayload(rec)); err != nil {
			return err
		}
		i++
	}
	t.recs = t.recs[i:]
	return nil
}

// flushHead flushes only the oldest tail record for file, if any, returning
// whether it flushed something. Used by the background drain loop, which
// round-robins one record per file per iteration.
func (m *Manager) flushHead(file string) (bool, error) {
	t := m.getTail(file)
	t.mutex.Lock()
	if len(t.recs) == 0 {
		t.mutex.Unlock()
		return false, nil
	}
	head := t.recs[0]
	t.mutex.Unlock()

	if err := m.Flush(file, head.LSN()); err != nil {
		return false, err
	}
	return true, nil
}

// ForwardIterator returns a restartable lazy sequence over file in ascending
// LSN order. The returned iterator must be closed.
func (m *Manager) ForwardIterator(file string) (RecordIterator, error) {
	it, err := m.store.ScanForward(file)
	if err != nil {
		return nil, err
	}
	return &recordIterator{inner: it}, nil
}

// Iterator returns a restartable lazy sequence over file in descending LSN
// order (reverse of ForwardIterator). The returned iterator must be closed.
func (m *Manager) Iterator(file string) (RecordIterator, error) {
	it, err := m.store.ScanBackward(file)
	if err != nil {
		return nil, err
	}
	return &recordIterator{inner: it}, nil
}

// RecordIterator yields decoded log records. It must be closed.
type RecordIterator interface {
	Next() (Record, bool, error)
	Close() error
}

type recordIterator struct {
	inner Iterator
}

func (it *recordIterator) Next() (Record, bool, error) {
	payload, ok, err := it.inner.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := DecodePayload(payload)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (it *recordIterator) Close() error { return it.inner.Close() }

// Commit composes and durably writes a Commit control record: write
// followed by a blocking flush of exactly that record's LSN, i.e. a
// synchronous durability boundary.
func (m *Manager) Commit(tx uint64, file string) error {
	rec := NewCommitRec(tx)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// Rollback undoes every Insert/Delete record for tx found scanning file in
// reverse, stopping at tx's Start record, then durably writes a Rollback
// control record. The iterator is always closed before returning, including
// on the early-return-at-START path (§9: fixing a source ambiguity).
func (m *Manager) Rollback(tx uint64, file string, undo func(Record) error) error {
	it, err := m.Iterator(file)
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		rec, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if rec.TxNum() != tx {
			continue
		}
		if rec.Type() == TypeStart {
			break
		}
		if rec.Type() == TypeInsert || rec.Type() == TypeDelete {
			if err := undo(rec); err != nil {
				return err
			}
		}
	}

	rec := NewRollbackRec(tx)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// Ready composes and durably writes a Ready control record: this node has
// voted YES in 2PC to host for tx.
func (m *Manager) Ready(tx uint64, host, file string) error {
	rec := NewReadyRec(tx, host)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// NotReady composes and durably writes a NotReady control record: this node
// has voted NO.
func (m *Manager) NotReady(tx uint64, file string) error {
	rec := NewNotReadyRec(tx)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// Insert writes (without flushing) an Insert redo/undo record and returns
// it so the caller can track its LSN.
func (m *Manager) Insert(tx uint64, b Block, off int32, before, after []byte, file string) *InsertRec {
	rec := NewInsertRec(tx, b, off, before, after)
	m.Write(rec, file)
	return rec
}

// Delete writes (without flushing) a Delete redo/undo record and returns it.
func (m *Manager) Delete(tx uint64, b Block, off int32, before, after []byte, file string) *DeleteRec {
	rec := NewDeleteRec(tx, b, off, before, after)
	m.Write(rec, file)
	return rec
}

// ForwardIteratorWithArchive returns a forward iterator that first replays
// every archived segment for file (oldest first), then whatever remains in
// the live file, reproducing global LSN order across concurrent archival
// (scenario 5). If archiver is nil this is equivalent to ForwardIterator.
func (m *Manager) ForwardIteratorWithArchive(archiver *BboltArchiver, file string) (RecordIterator, error) {
	if archiver == nil {
		return m.ForwardIterator(file)
	}

	segs, err := archiver.Segments(file)
	if err != nil {
		return nil, err
	}
	live, err := m.ForwardIterator(file)
	if err != nil {
		return nil, err
	}
	return &archivedForwardIterator{segs: segs, live: live}, nil
}

type archivedForwardIterator struct {
	segs    [][]byte
	segPos  int
	bufIter Iterator
	live    RecordIterator
}

func (it *archivedForwardIterator) Next() (Record, bool, error) {
	for {
		if it.bufIter == nil {
			if it.segPos >= len(it.segs) {
				return it.live.Next()
			}
			it.bufIter = &memForwardIter{buf: it.segs[it.segPos]}
			it.segPos++
		}

		payload, ok, err := it.bufIter.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.bufIter = nil
			continue
		}
		rec, err := DecodePayload(payload)
		if err != nil {
			return nil, false, err
		}
		return rec, true, nil
	}
}

func (it *archivedForwardIterator) Close() error {
	return it.live.Close()
}

// memForwardIter scans a byte buffer already holding framed records,
// exactly as an archived segment blob does.
type memForwardIter struct {
	buf []byte
	pos int
}

func (it *memForwardIter) Next() ([]byte, bool, error) {
	if it.pos >= len(it.buf) {
		return nil, false, nil
	}
	if it.pos+4 > len(it.buf) {
		return nil, false, fmt.Errorf("txlog: corrupt segment, truncated size prefix")
	}
	size := beUint32(it.buf[it.pos : it.pos+4])
	start := it.pos + 4
	if start+int(size) > len(it.buf) {
		return nil, false, fmt.Errorf("txlog: corrupt segment, truncated payload")
	}
	payload := it.buf[start : start+int(size)]
	it.pos = start + int(size) + 4
	return payload, true, nil
}

func (it *memForwardIter) Close() error { return nil }

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Prepare durably writes the coordinator's Prepare record.
func (m *Manager) Prepare(tx uint64, participants []string, file string) error {
	rec := NewPrepareRec(tx, participants)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// XACommit durably writes the coordinator's COMMIT decision.
func (m *Manager) XACommit(tx uint64, participants []string, file string) error {
	rec := NewXACommitRec(tx, participants)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// XAAbort durably writes the coordinator's ABORT decision.
func (m *Manager) XAAbort(tx uint64, participants []string, file string) error {
	rec := NewXAAbortRec(tx, participants)
	lsn := m.Write(rec, file)
	return m.Flush(file, lsn)
}

// StartBackgroundFlush launches the drain loop in its own goroutine. Stop
// must be called to terminate it cleanly.
func (m *Manager) StartBackgroundFlush() {
	go m.drainLoop()
}

func (m *Manager) drainLoop() {
	defer close(m.doneCh)

	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		nothing := true
		m.tailsMutex.Lock()
		files := make([]string, 0, len(m.tails))
		for f := range m.tails {
			files = append(files, f)
		}
		m.tailsMutex.Unlock()

		for _, f := range files {
			flushed, err := m.flushHead(f)
			if err != nil {
				log.WithFields(log.Fields{"file": f, "error": err.Error()}).
					Error("txlog: fatal error flushing log tail, stopping background flush")
				return
			}
			if flushed {
				nothing = false
			}
		}

		if nothing {
			select {
			case <-m.stopCh:
				return
			case <-time.After(m.SleepInterval):
			}
		}
	}
}

// Stop terminates the background drain loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

// FlushAll flushes every outstanding record in file's tail, used at clean
// shutdown.
func (m *Manager) FlushAll(file string) error {
	t := m.getTail(file)
	t.mutex.Lock()
	if len(t.recs) == 0 {
		t.mutex.Unlock()
		return nil
	}
	last := t.recs[len(t.recs)-1].LSN()
	t.mutex.Unlock()
	return m.Flush(file, last)
}

func (m *Manager) String() string {
	return fmt.Sprintf("txlog.Manager(files=%d)", len(m.tails))
}
