// Package recovery implements the ARIES-Lite recovery engine (C4): a
// backward analysis/undo pass followed by a forward redo pass, run once at
// startup and again whenever a log file is attached at runtime.
package recovery

import (
	log "github.com/sirupsen/logrus"

	"github.com/shardsql/shardsql/txlog"
)

// XAAsker lets a participant, on finding a Ready record during its own
// recovery, ask the coordinator named in that record for tx's outcome.
type XAAsker interface {
	AskXA(tx uint64, coordHost string) (bool, error)
}

// Broadcaster drives phase-2 delivery during recovery: a coordinator
// recovering an XACommit/XAAbort record resumes phase 2 against the
// recorded participant set; a Prepare record with no matching decision is
// resolved as an abort and broadcast accordingly.
type Broadcaster interface {
	Phase2Commit(tx uint64, participants []string) error
	Phase2Abort(tx uint64, participants []string) error
}

// Engine runs recovery against one log manager. Pages is the buffer-pool
// collaborator undo/redo apply to; Asker and Broadcast may be nil. With a
// nil Asker every Ready record resolves to rollback; with a nil Broadcast
// the phase-2 broadcasts for XA records are skipped.
type Engine struct {
	Manager    *txlog.Manager
	Pages      txlog.PageWriter
	Asker      XAAsker
	Broadcast  Broadcaster
	Archiver   *txlog.BboltArchiver
}

// Run executes one full recovery pass against file: backward analysis/undo,
// then forward redo, then completion (durable Commit for any tx resolved
// via XAAsker, then a flushed NQCheck barrier).
func (e *Engine) Run(file string) error {
	entry := log.WithField("file", file)
	entry.Info("recovery: starting analysis/undo pass")

	committed := map[uint64]bool{}
	rolledBack := map[uint64]bool{}
	needsCommit := map[uint64]bool{}
	xaCommitted := map[uint64]bool{}
	xaRolledBack := map[uint64]bool{}

	it, err := e.Manager.Iterator(file)
	if err != nil {
		return err
	}
	closeErr := func() {
		if cerr := it.Close(); cerr != nil {
			entry.WithField("error", cerr.Error()).Error("recovery: closing backward iterator")
		}
	}

	for {
		rec, ok, err := it.Next()
		if err != nil {
			closeErr()
			return err
		}
		if !ok {
			break
		}

		switch r := rec.(type) {
		case *txlog.CommitRec:
			committed[r.TxNum()] = true

		case *txlog.RollbackRec:
			rolledBack[r.TxNum()] = true

		case *txlog.NotReadyRec:
			rolledBack[r.TxNum()] = true

		case *txlog.ReadyRec:
			if e.Asker == nil {
				entry.WithField("tx", r.TxNum()).
					Warn("recovery: in-doubt transaction but no coordinator to ask, rolling back")
				rolledBack[r.TxNum()] = true
				continue
			}
			ok, err := e.Asker.AskXA(r.TxNum(), r.Host)
			if err != nil {
				closeErr()
				return err
			}
			if ok {
				committed[r.TxNum()] = true
				needsCommit[r.TxNum()] = true
			} else {
				rolledBack[r.TxNum()] = true
			}

		case *txlog.XACommitRec:
			if e.Broadcast != nil {
				if err := e.Broadcast.Phase2Commit(r.TxNum(), r.Participants); err != nil {
					entry.WithFields(log.Fields{"tx": r.TxNum(), "error": err.Error()}).
						Warn("recovery: phase2 commit broadcast during recovery failed, deferred")
				}
			}
			xaCommitted[r.TxNum()] = true

		case *txlog.XAAbortRec:
			if e.Broadcast != nil {
				if err := e.Broadcast.Phase2Abort(r.TxNum(), r.Participants); err != nil {
					entry.WithFields(log.Fields{"tx": r.TxNum(), "error": err.Error()}).
						Warn("recovery: phase2 abort broadcast during recovery failed, deferred")
				}
			}
			xaRolledBack[r.TxNum()] = true

		case *txlog.PrepareRec:
			if xaCommitted[r.TxNum()] || xaRolledBack[r.TxNum()] {
				continue
			}
			// Prepare without a matching decision: the decision was lost.
			// Abort (invariant 5).
			entry.WithField("tx", r.TxNum()).
				Warn("recovery: prepare with no decision, aborting")
			if e.Broadcast != nil {
				if err := e.Broadcast.Phase2Abort(r.TxNum(), r.Participants); err != nil {
					entry.WithFields(log.Fields{"tx": r.TxNum(), "error": err.Error()}).
						Warn("recovery: phase2 abort broadcast during recovery failed, deferred")
				}
			}
			xaRolledBack[r.TxNum()] = true

		case *txlog.InsertRec:
			if !committed[r.TxNum()] && !rolledBack[r.TxNum()] {
				if err := txlog.Undo(r, e.Pages); err != nil {
					closeErr()
					return err
				}
			}

		case *txlog.DeleteRec:
			if !committed[r.TxNum()] && !rolledBack[r.TxNum()] {
				if err := txlog.Undo(r, e.Pages); err != nil {
					closeErr()
					return err
				}
			}
		}
	}
	closeErr()

	entry.Info("recovery: starting forward redo pass")
	fwd, err := e.Manager.ForwardIteratorWithArchive(e.Archiver, file)
	if err != nil {
		return err
	}
	for {
		rec, ok, err := fwd.Next()
		if err != nil {
			fwd.Close()
			return err
		}
		if !ok {
			break
		}

		switch r := rec.(type) {
		case *txlog.InsertRec:
			if committed[r.TxNum()] {
				if err := txlog.Redo(r, e.Pages); err != nil {
					fwd.Close()
					return err
				}
			}
		case *txlog.DeleteRec:
			if committed[r.TxNum()] {
				if err := txlog.Redo(r, e.Pages); err != nil {
					fwd.Close()
					return err
				}
			}
		}
	}
	if err := fwd.Close(); err != nil {
		return err
	}

	for tx := range needsCommit {
		if err := e.Manager.Commit(tx, file); err != nil {
			return err
		}
	}

	rec := txlog.NewNQCheckRec(nil)
	lsn := e.Manager.Write(rec, file)
	if err := e.Manager.Flush(file, lsn); err != nil {
		return err
	}

	entry.Info("recovery: complete")
	return nil
}
