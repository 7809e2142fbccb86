// Package xa implements the 2PC/XA coordinator (C5): Prepare, phase-2
// commit/abort, durable outcome persistence, and in-doubt resolution for
// participants asking about a transaction they hold a Ready record for.
package xa

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/shardsql/shardsql/txlog"
)

// Broadcaster drives phase 1 and phase 2 over the participant set via the
// tree dispatcher (C6). Prepare aggregates every branch's vote (tight
// coupling to 2PC correctness: any unreachable host counts as NO). Phase2
// calls are fire-and-forget from the coordinator's perspective — delivery
// failures are the deferred queue's problem (C9), not the coordinator's.
type Broadcaster interface {
	Prepare(tx uint64, hosts []string) bool
	Phase2Commit(tx uint64, hosts []string)
	Phase2Abort(tx uint64, hosts []string)
}

// Coordinator owns the XA log for one node acting as a 2PC coordinator.
type Coordinator struct {
	Manager     *txlog.Manager
	Broadcaster Broadcaster
	File        string // typically $log_dir/xa.log
}

// TryCommit runs the full 2PC protocol for tx against hosts: durable
// Prepare, phase-1 broadcast, durable decision, phase-2 broadcast. It
// returns nil iff the transaction committed.
func (c *Coordinator) TryCommit(tx uint64, hosts []string) error {
	entry := log.WithFields(log.Fields{"tx": tx, "hosts": hosts})

	if err := c.Manager.Prepare(tx, hosts, c.File); err != nil {
		return fmt.Errorf("xa: writing prepare record for tx %d: %w", tx, err)
	}

	if c.Broadcaster.Prepare(tx, hosts) {
		if err := c.Manager.XACommit(tx, hosts, c.File); err != nil {
			return fmt.Errorf("xa: writing commit decision for tx %d: %w", tx, err)
		}
		c.Broadcaster.Phase2Commit(tx, hosts)
		entry.Info("xa: transaction committed")
		return nil
	}

	if err := c.Manager.XAAbort(tx, hosts, c.File); err != nil {
		return fmt.Errorf("xa: writing abort decision for tx %d: %w", tx, err)
	}
	c.Broadcaster.Phase2Abort(tx, hosts)
	entry.Warn("xa: transaction aborted, not every participant voted yes")
	return fmt.Errorf("xa: transaction %d aborted", tx)
}

// Phase2 resumes phase-2 delivery for an already-decided commit, used
// during recovery (a coordinator recovering an XACommit record) and by the
// normal path after TryCommit decides.
func (c *Coordinator) Phase2(tx uint64, hosts []string) {
	c.Broadcaster.Phase2Commit(tx, hosts)
}

// RollbackPhase2 resumes phase-2 abort delivery.
func (c *Coordinator) RollbackPhase2(tx uint64, hosts []string) {
	c.Broadcaster.Phase2Abort(tx, hosts)
}

// AskXA answers a participant's in-doubt query: it consults the durable XA
// log for tx and returns true iff an XACommit record is present. An
// XAAbort, a Prepare with no matching decision, or no record at all all
// resolve to false — the safe default is to roll back (§4.5).
func (c *Coordinator) AskXA(tx uint64) (bool, error) {
	it, err := c.Manager.Iterator(c.File)
	if err != nil {
		return false, err
	}
	defer it.Close()

	for {
		rec, ok, err := it.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if rec.TxNum() != tx {
			continue
		}
		switch rec.Type() {
		case txlog.TypeXACommit:
			return true, nil
		case txlog.TypeXAAbort:
			return false, nil
		}
	}
}
