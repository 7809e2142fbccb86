// Package cluster implements process-wide cluster membership bookkeeping:
// the blacklist and deferred-command queue (C9) that the tree dispatcher
// (C6) falls back to when a broadcast branch is unreachable.
package cluster

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/shardsql/shardsql/rpc"
)

// PendingOp is one command deferred against a blacklisted host.
type PendingOp struct {
	Command rpc.Command
	TxID    uint64
	Args    [][]byte
}

type hostState struct {
	blacklisted bool
	retryAt     time.Time
	backoff     time.Duration
	pending     []PendingOp
}

// Retrier resends a deferred op to host, returning whether it succeeded.
type Retrier interface {
	Retry(host string, op PendingOp) bool
}

// Persistence durably mirrors the deferred-command queue so a blacklisted,
// not-yet-XA-resolved op (e.g. a deferred LROLLBCK) survives a process
// restart. It is optional: recovery (§4.4) already replays commitment
// intent from the XA log, but that leaves non-XA deferred ops uncovered.
// BadgerPersistence is the default implementation.
type Persistence interface {
	Persist(host string, op PendingOp) error
	Forget(host string) error
	LoadAll() (map[string][]PendingOp, error)
}

// Blacklist tracks (host -> {blacklisted?, pending_ops[]}) and a background
// reaper that retries pending ops on blacklist expiry with exponential
// backoff (§4.9). State is in-memory by default; attaching a Persistence
// via SetPersistence reloads its contents, persists each op MarkBlacklisted
// queues, and forgets a host once its queue fully drains. Ops retried
// successfully while others for the same host remain queued stay in the
// durable store.
type Blacklist struct {
	mutex       sync.Mutex
	hosts       map[string]*hostState
	base        time.Duration
	max         time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	persistence Persistence
}

// NewBlacklist returns a Blacklist whose reaper backs off starting at base
// and capping at max.
func NewBlacklist(base, max time.Duration) *Blacklist {
	return &Blacklist{
		hosts:  map[string]*hostState{},
		base:   base,
		max:    max,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (b *Blacklist) state(host string) *hostState {
	s, ok := b.hosts[host]
	if !ok {
		s = &hostState{backoff: b.base}
		b.hosts[host] = s
	}
	return s
}

// SetPersistence attaches p to the blacklist and reloads every op it has
// durably recorded from a prior run, marking each op's host blacklisted and
// immediately due for retry. Call this once, before StartReaper.
func (b *Blacklist) SetPersistence(p Persistence) error {
	loaded, err := p.LoadAll()
	if err != nil {
		return fmt.Errorf("cluster: loading persisted deferred queue: %w", err)
	}

	b.mutex.Lock()
	b.persistence = p
	now := time.Now()
	for host, ops := range loaded {
		s := b.state(host)
		s.blacklisted = true
		s.pending = append(s.pending, ops...)
		s.retryAt = now
	}
	b.mutex.Unlock()

	log.WithField("hosts", len(loaded)).Info("cluster: reloaded persisted deferred queue")
	return nil
}

// MarkBlacklisted implements broadcast.DeferredQueue: a broadcast branch
// failed against host, so host is marked down and the command is queued
// for retry.
func (b *Blacklist) MarkBlacklisted(host string, command rpc.Command, txID uint64, args [][]byte) {
	op := PendingOp{Command: command, TxID: txID, Args: args}

	b.mutex.Lock()
	s := b.state(host)
	s.blacklisted = true
	s.pending = append(s.pending, op)
	s.retryAt = time.Now().Add(s.backoff)
	persistence := b.persistence
	b.mutex.Unlock()

	if persistence != nil {
		if err := persistence.Persist(host, op); err != nil {
			log.WithFields(log.Fields{"host": host, "error": err.Error()}).
				Error("cluster: failed to persist deferred op")
		}
	}

	log.WithFields(log.Fields{"host": host, "command": command.String(), "tx": txID}).
		Warn("cluster: host blacklisted, command deferred")
}

// IsBlacklisted reports whether host is currently marked down.
func (b *Blacklist) IsBlacklisted(host string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.hosts[host]
	return ok && s.blacklisted
}

// Pending returns a snapshot of host's deferred operations.
func (b *Blacklist) Pending(host string) []PendingOp {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.hosts[host]
	if !ok {
		return nil
	}
	out := make([]PendingOp, len(s.pending))
	copy(out, s.pending)
	return out
}

// StartReaper launches the background retry loop, polling every interval
// for hosts whose backoff has expired.
func (b *Blacklist) StartReaper(interval time.Duration, retrier Retrier) {
	go b.reap(interval, retrier)
}

func (b *Blacklist) reap(interval time.Duration, retrier Retrier) {
	defer close(b.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.retryDue(retrier)
		}
	}
}

func (b *Blacklist) retryDue(retrier Retrier) {
	b.mutex.Lock()
	due := map[string][]PendingOp{}
	now := time.Now()
	for host, s := range b.hosts {
		if s.blacklisted && now.After(s.retryAt) && len(s.pending) > 0 {
			due[host] = append([]PendingOp(nil), s.pending...)
		}
	}
	persistence := b.persistence
	b.mutex.Unlock()

	for host, ops := range due {
		var remaining []PendingOp
		for _, op := range ops {
			if retrier.Retry(host, op) {
				continue
			}
			remaining = append(remaining, op)
		}

		drained := len(remaining) == 0

		b.mutex.Lock()
		s := b.state(host)
		s.pending = remaining
		if drained {
			s.blacklisted = false
			s.backoff = b.base
		} else {
			s.backoff *= 2
			if s.backoff > b.max {
				s.backoff = b.max
			}
			s.retryAt = time.Now().Add(s.backoff)
		}
		b.mutex.Unlock()

		if drained && persistence != nil {
			if err := persistence.Forget(host); err != nil {
				log.WithFields(log.Fields{"host": host, "error": err.Error()}).
					Error("cluster: failed to forget drained deferred queue")
			}
		}
	}
}

// Stop terminates the reaper.
func (b *Blacklist) Stop() {
	close(b.stopCh)
	<-b.doneCh
}
