package broadcast

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shardsql/shardsql/rpc"
	"github.com/shardsql/shardsql/spanning"
)

// fakeDialer serves one in-process net.Pipe connection per host, replying
// with a fixed response, or returns an error for hosts listed in down.
type fakeDialer struct {
	mu   sync.Mutex
	down map[string]bool
	resp map[string]string // host -> "OK" | "NO"
}

func (f *fakeDialer) Dial(host string, timeout time.Duration) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[host] {
		return nil, fmt.Errorf("fake: %s unreachable", host)
	}

	client, server := net.Pipe()
	reply := f.resp[host]
	if reply == "" {
		reply = "OK"
	}
	go func() {
		defer server.Close()
		if _, err := rpc.DecodeRequest(server); err != nil {
			return
		}
		server.Write([]byte(reply))
	}()
	return client, nil
}

func TestBroadcastAllSucceed(t *testing.T) {
	d := &Dispatcher{Dialer: &fakeDialer{}, Timeout: time.Second}
	tree := spanning.MakeTree([]string{"a", "b", "c"}, 4)
	if ok := d.Broadcast(rpc.CmdLCommit, 1, nil, tree); !ok {
		t.Fatalf("expected all branches to succeed")
	}
}

type recordingQueue struct {
	mu      sync.Mutex
	marked  []string
}

func (q *recordingQueue) MarkBlacklisted(host string, command rpc.Command, txID uint64, args [][]byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.marked = append(q.marked, host)
}

func TestPrepareFailureIsNoVote(t *testing.T) {
	fd := &fakeDialer{down: map[string]bool{"b": true}}
	q := &recordingQueue{}
	d := &Dispatcher{Dialer: fd, Timeout: time.Second, Queue: q}

	tree := spanning.MakeTree([]string{"a", "b", "c"}, 4)
	ok := d.Broadcast(rpc.CmdPrepare, 1, nil, tree)
	if ok {
		t.Fatalf("expected overall prepare to fail when a branch is unreachable")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	found := false
	for _, h := range q.marked {
		if h == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected host b to be blacklisted, got %v", q.marked)
	}
}

func TestCommitFailureDoesNotAbortBroadcast(t *testing.T) {
	fd := &fakeDialer{down: map[string]bool{"b": true}}
	q := &recordingQueue{}
	d := &Dispatcher{Dialer: fd, Timeout: time.Second, Queue: q}

	tree := spanning.MakeTree([]string{"a", "b", "c"}, 4)
	// Commit failure is reported but must not be escalated as an error by
	// the caller: the deferred queue guarantees eventual delivery.
	d.Broadcast(rpc.CmdLCommit, 1, nil, tree)

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.marked) != 1 || q.marked[0] != "b" {
		t.Fatalf("expected b enqueued for retry, got %v", q.marked)
	}
}

func TestDeadSubtreeRebuildsAndRedispatches(t *testing.T) {
	// Tree: A, and B with children C, D. B is down; C must still receive
	// the command via the rebuilt subtree [C, D].
	fd := &fakeDialer{down: map[string]bool{"B": true}}
	q := &recordingQueue{}
	d := &Dispatcher{Dialer: fd, Timeout: time.Second, Queue: q}

	tree := []*spanning.Node{
		{Host: "A"},
		{Host: "B", Children: []*spanning.Node{{Host: "C"}, {Host: "D"}}},
	}
	ok := d.Broadcast(rpc.CmdLCommit, 42, nil, tree)
	if !ok {
		t.Fatalf("expected commit broadcast to report success via rebuilt subtree")
	}
}
