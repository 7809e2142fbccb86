// Package broadcast implements the spanning-tree command dispatcher (C6):
// fan-out over a tree of participant hosts, with per-branch failure repair
// and the blacklist/deferred-queue hookup for commands that must
// eventually reach every host.
package broadcast

import (
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/shardsql/shardsql/rpc"
	"github.com/shardsql/shardsql/spanning"
)

// Dialer opens the TCP connection to a participant host. The default
// implementation is realDialer; tests substitute a fake.
type Dialer interface {
	Dial(host string, timeout time.Duration) (net.Conn, error)
}

type realDialer struct{}

func (realDialer) Dial(host string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", host, timeout)
}

// DeferredQueue receives commands that failed to reach a host so they can
// be retried later (C9). MarkBlacklisted is called exactly once per failed
// branch dispatch.
type DeferredQueue interface {
	MarkBlacklisted(host string, command rpc.Command, txID uint64, args [][]byte)
}

// Dispatcher executes one broadcast command over a spanning forest.
type Dispatcher struct {
	Dialer  Dialer
	Timeout time.Duration // bounds every branch's dial; for PREPARE also the whole exchange
	Queue   DeferredQueue
}

// NewDispatcher returns a Dispatcher using real TCP connections.
func NewDispatcher(timeout time.Duration, queue DeferredQueue) *Dispatcher {
	return &Dispatcher{Dialer: realDialer{}, Timeout: timeout, Queue: queue}
}

// Broadcast sends command to every top-level subtree root in tree
// concurrently and waits for the whole forest to be visited (§4.6:
// "a subtree is fully visited before its root returns to the caller. No
// ordering between sibling subtrees."). It returns true iff every branch
// reported success — for PREPARE that means every vote was YES, and an
// unreachable host is a NO. For commit/rollback/mass-delete an unreachable
// host is handed to the deferred queue and does not make the result false;
// only a reachable host answering NO (or a failure in the subtree
// re-dispatched below it) does.
func (d *Dispatcher) Broadcast(command rpc.Command, txID uint64, args [][]byte, tree []*spanning.Node) bool {
	if len(tree) == 0 {
		return true
	}

	var wg sync.WaitGroup
	results := make([]bool, len(tree))
	for i, n := range tree {
		wg.Add(1)
		go func(i int, n *spanning.Node) {
			defer wg.Done()
			results[i] = d.dispatchOne(command, txID, args, n)
		}(i, n)
	}
	wg.Wait()

	allOK := true
	for _, ok := range results {
		if !ok {
			allOK = false
		}
	}
	return allOK
}

func (d *Dispatcher) dispatchOne(command rpc.Command, txID uint64, args [][]byte, n *spanning.Node) bool {
	entry := log.WithFields(log.Fields{"host": n.Host, "command": command.String(), "tx": txID})

	ok, err := d.send(command, txID, args, n.Host, n.Children)
	if err == nil {
		return ok
	}

	entry.WithField("error", err.Error()).Warn("broadcast: branch unreachable, repairing")
	if d.Queue != nil {
		d.Queue.MarkBlacklisted(n.Host, command, txID, args)
	}

	if command == rpc.CmdPrepare {
		// Tight coupling to 2PC correctness: an unreachable participant
		// cannot vote YES.
		return false
	}

	rebuilt := spanning.RebuildTree([]*spanning.Node{n}, n.Host)
	if len(rebuilt) == 0 {
		// No survivors below the failed host; the deferred queue owns
		// eventual delivery to it.
		return true
	}
	return d.Broadcast(command, txID, args, rebuilt)
}

func (d *Dispatcher) send(command rpc.Command, txID uint64, args [][]byte, host string, children []*spanning.Node) (bool, error) {
	timeout := d.Timeout
	if command != rpc.CmdPrepare {
		// Phase-2 broadcasts have no timeout: only bound the dial itself,
		// never the remote's processing time.
		timeout = 0
	}

	conn, err := d.Dialer.Dial(host, d.Timeout)
	if err != nil {
		return false, fmt.Errorf("broadcast: dial %s: %w", host, err)
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	req := rpc.Request{
		Command: command,
		TxID:    txID,
		Args:    args,
		Tree:    spanning.Encode(children),
	}
	if _, err := conn.Write(rpc.EncodeRequest(req)); err != nil {
		return false, fmt.Errorf("broadcast: write to %s: %w", host, err)
	}

	resp, err := rpc.ReadResponse(conn)
	if err != nil {
		return false, fmt.Errorf("broadcast: read response from %s: %w", host, err)
	}
	if resp.Exception {
		return false, fmt.Errorf("broadcast: %s reported exception: %s", host, resp.Message)
	}
	return resp.OK, nil
}
