package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shardsql/shardsql/broadcast"
	"github.com/shardsql/shardsql/cluster"
	"github.com/shardsql/shardsql/collab"
	"github.com/shardsql/shardsql/dml"
	"github.com/shardsql/shardsql/recovery"
	"github.com/shardsql/shardsql/rpc"
	"github.com/shardsql/shardsql/spanning"
	"github.com/shardsql/shardsql/txlog"
	"github.com/shardsql/shardsql/txn"
	"github.com/shardsql/shardsql/xa"
)

var (
	coordCmd = &cobra.Command{
		Use:   "coord",
		Short: "Start a shardsql 2PC coordinator node",
		RunE:  coordRun,
	}

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Start a shardsql worker node",
		RunE:  workerRun,
	}

	logDir             = "txlog"
	targetLogSize      int64 = 64 << 20
	logCleanSleepSecs  = 30
	portNumber         = "7654"
	maxNeighborNodes   = 4
	maxBatch           = 256
	prefetchReqSize    = 16
	pagesInAdvance     = 2
	dataDirectories    = []string{"data0"}
	blacklistBaseSecs  = 1
	blacklistMaxSecs   = 60
	branchTimeoutMsecs = 2000
)

func initClusterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&logDir, "log_dir", logDir, "`directory` holding the node's write-ahead log files")
	cfgVars["log_dir"] = fs.Lookup("log_dir")

	fs.Int64Var(&targetLogSize, "target_log_size", targetLogSize,
		"target size in `bytes` before a log file is rolled")
	cfgVars["target_log_size"] = fs.Lookup("target_log_size")

	fs.IntVar(&logCleanSleepSecs, "log_clean_sleep_secs", logCleanSleepSecs,
		"`seconds` the background log-flush loop sleeps between passes")
	cfgVars["log_clean_sleep_secs"] = fs.Lookup("log_clean_sleep_secs")

	fs.StringVar(&portNumber, "port_number", portNumber, "`port` the cluster RPC listener binds")
	cfgVars["port_number"] = fs.Lookup("port_number")

	fs.IntVar(&maxNeighborNodes, "max_neighbor_nodes", maxNeighborNodes,
		"branching factor `k` used to build the broadcast spanning tree")
	cfgVars["max_neighbor_nodes"] = fs.Lookup("max_neighbor_nodes")

	fs.IntVar(&maxBatch, "max_batch", maxBatch, "maximum rows per DML batch")
	cfgVars["max_batch"] = fs.Lookup("max_batch")

	fs.IntVar(&prefetchReqSize, "prefetch_request_size", prefetchReqSize,
		"blocks per MDELETE batch; each prefetch call covers pages_in_advance batches")
	cfgVars["prefetch_request_size"] = fs.Lookup("prefetch_request_size")

	fs.IntVar(&pagesInAdvance, "pages_in_advance", pagesInAdvance,
		"outstanding prefetch batches MDELETE keeps ahead of the batch it is zeroing")
	cfgVars["pages_in_advance"] = fs.Lookup("pages_in_advance")

	fs.StringSliceVar(&dataDirectories, "data_directories", dataDirectories,
		"device `directories` this node shards rows across")
	cfgVars["data_directories"] = fs.Lookup("data_directories")

	fs.IntVar(&blacklistBaseSecs, "blacklist_base_secs", blacklistBaseSecs,
		"starting backoff, in `seconds`, before retrying a blacklisted host")
	cfgVars["blacklist_base_secs"] = fs.Lookup("blacklist_base_secs")

	fs.IntVar(&blacklistMaxSecs, "blacklist_max_secs", blacklistMaxSecs,
		"backoff cap, in `seconds`, for a blacklisted host's retry interval")
	cfgVars["blacklist_max_secs"] = fs.Lookup("blacklist_max_secs")

	fs.IntVar(&branchTimeoutMsecs, "branch_timeout_msecs", branchTimeoutMsecs,
		"PREPARE branch dial+read timeout in `milliseconds`")
	cfgVars["branch_timeout_msecs"] = fs.Lookup("branch_timeout_msecs")
}

func init() {
	initClusterFlags(coordCmd.Flags())
	initClusterFlags(workerCmd.Flags())
	mahoCmd.AddCommand(coordCmd)
	mahoCmd.AddCommand(workerCmd)
}

func newManager() (*txlog.Manager, *txlog.BboltArchiver, string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, "", fmt.Errorf("shardsql: log dir: %w", err)
	}
	archiver := txlog.NewBboltArchiver(logDir)
	store := txlog.NewStore(targetLogSize)
	store.Archive = archiver.Archive
	mgr := txlog.NewManager(store, txlog.NewAllocator(), time.Duration(logCleanSleepSecs)*time.Second)
	mgr.StartBackgroundFlush()
	return mgr, archiver, filepath.Join(logDir, "active.log"), nil
}

// retrier replays a deferred PendingOp against one host by re-encoding it
// as an rpc.Request over a fresh connection.
type retrier struct {
	timeout time.Duration
}

func (r retrier) Retry(host string, op cluster.PendingOp) bool {
	conn, err := net.DialTimeout("tcp", host, r.timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	req := rpc.Request{Command: op.Command, TxID: op.TxID, Args: op.Args}
	if _, err := conn.Write(rpc.EncodeRequest(req)); err != nil {
		return false
	}
	resp, err := rpc.ReadResponse(conn)
	return err == nil && resp.OK && !resp.Exception
}

// recoveryBroadcaster adapts a broadcast.Dispatcher (bool-returning, one
// tree at a time) to recovery.Broadcaster's error-returning shape, building
// a single-level tree out of the flat participant list recovery hands it.
type recoveryBroadcaster struct {
	dispatcher *broadcast.Dispatcher
}

func flatTree(hosts []string) []*spanning.Node {
	nodes := make([]*spanning.Node, len(hosts))
	for i, h := range hosts {
		nodes[i] = &spanning.Node{Host: h}
	}
	return nodes
}

func (r recoveryBroadcaster) Phase2Commit(tx uint64, participants []string) error {
	r.dispatcher.Broadcast(rpc.CmdLCommit, tx, nil, flatTree(participants))
	return nil
}

func (r recoveryBroadcaster) Phase2Abort(tx uint64, participants []string) error {
	r.dispatcher.Broadcast(rpc.CmdLRollback, tx, nil, flatTree(participants))
	return nil
}

// xaBroadcaster adapts the same Dispatcher to xa.Broadcaster's shape for
// the coordinator's own TryCommit calls.
type xaBroadcaster struct {
	dispatcher *broadcast.Dispatcher
}

func (x xaBroadcaster) Prepare(tx uint64, hosts []string) bool {
	return x.dispatcher.Broadcast(rpc.CmdPrepare, tx, nil, spanning.MakeTree(hosts, maxNeighborNodes))
}

func (x xaBroadcaster) Phase2Commit(tx uint64, hosts []string) {
	x.dispatcher.Broadcast(rpc.CmdLCommit, tx, nil, spanning.MakeTree(hosts, maxNeighborNodes))
}

func (x xaBroadcaster) Phase2Abort(tx uint64, hosts []string) {
	x.dispatcher.Broadcast(rpc.CmdLRollback, tx, nil, spanning.MakeTree(hosts, maxNeighborNodes))
}

func coordRun(cmd *cobra.Command, args []string) error {
	mgr, archiver, _, err := newManager()
	if err != nil {
		return err
	}
	xaFile := filepath.Join(logDir, "xa.log")

	bl := cluster.NewBlacklist(
		time.Duration(blacklistBaseSecs)*time.Second, time.Duration(blacklistMaxSecs)*time.Second)
	persist, err := cluster.OpenBadgerPersistence(filepath.Join(logDir, "deferred"))
	if err != nil {
		return fmt.Errorf("shardsql: opening deferred-queue store: %w", err)
	}
	if err := bl.SetPersistence(persist); err != nil {
		return fmt.Errorf("shardsql: reloading deferred queue: %w", err)
	}
	bl.StartReaper(time.Second, retrier{timeout: time.Duration(branchTimeoutMsecs) * time.Millisecond})

	dispatcher := broadcast.NewDispatcher(time.Duration(branchTimeoutMsecs)*time.Millisecond, bl)
	co := &xa.Coordinator{Manager: mgr, Broadcaster: xaBroadcaster{dispatcher}, File: xaFile}

	eng := &recovery.Engine{Manager: mgr, Broadcast: recoveryBroadcaster{dispatcher}, Archiver: archiver}
	if err := eng.Run(xaFile); err != nil {
		return fmt.Errorf("shardsql: coordinator recovery: %w", err)
	}

	l, err := net.Listen("tcp", ":"+portNumber)
	if err != nil {
		return fmt.Errorf("shardsql: listen: %w", err)
	}
	log.WithField("port", portNumber).Info("shardsql: coordinator listening")

	go serveCoordinator(l, co)

	return waitForShutdown(mgr, l, persist)
}

func serveCoordinator(l net.Listener, co *xa.Coordinator) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			req, err := rpc.DecodeRequest(conn)
			if err != nil {
				return
			}
			switch req.Command {
			case rpc.CmdCheckTx:
				xa.ServeCheckTx(conn, req, co)
			default:
				rpc.WriteExcept(conn, fmt.Sprintf("shardsql: coordinator does not serve %s", req.Command))
			}
		}(conn)
	}
}

func workerRun(cmd *cobra.Command, args []string) error {
	mgr, archiver, file, err := newManager()
	if err != nil {
		return err
	}

	bl := cluster.NewBlacklist(
		time.Duration(blacklistBaseSecs)*time.Second, time.Duration(blacklistMaxSecs)*time.Second)
	persist, err := cluster.OpenBadgerPersistence(filepath.Join(logDir, "deferred"))
	if err != nil {
		return fmt.Errorf("shardsql: opening deferred-queue store: %w", err)
	}
	if err := bl.SetPersistence(persist); err != nil {
		return fmt.Errorf("shardsql: reloading deferred queue: %w", err)
	}
	bl.StartReaper(time.Second, retrier{timeout: time.Duration(branchTimeoutMsecs) * time.Millisecond})
	dispatcher := broadcast.NewDispatcher(time.Duration(branchTimeoutMsecs)*time.Millisecond, bl)

	pool, err := dml.OpenPebblePageCache(filepath.Join(dataDirectories[0], "pages"), 4096)
	if err != nil {
		return fmt.Errorf("shardsql: opening page cache: %w", err)
	}

	writer := txn.NewPoolPageWriter(pool)
	eng := &recovery.Engine{
		Manager:   mgr,
		Pages:     writer,
		Asker:     xa.NewRemoteAsker(time.Duration(branchTimeoutMsecs) * time.Millisecond),
		Broadcast: recoveryBroadcaster{dispatcher},
		Archiver:  archiver,
	}
	if err := eng.Run(file); err != nil {
		return fmt.Errorf("shardsql: worker recovery: %w", err)
	}

	l, err := net.Listen("tcp", ":"+portNumber)
	if err != nil {
		return fmt.Errorf("shardsql: listen: %w", err)
	}
	log.WithField("port", portNumber).Info("shardsql: worker listening")

	go serveWorker(l, mgr, file, pool, dispatcher)

	return waitForShutdown(mgr, l, persist)
}

func serveWorker(l net.Listener, mgr *txlog.Manager, file string, pool *dml.PebblePageCache, dispatcher *broadcast.Dispatcher) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go handleWorkerConn(conn, mgr, file, pool, dispatcher)
	}
}

// handleWorkerConn serves one RPC by performing this node's own share of
// the command first, then recursively dispatching to this node's children
// in the spanning tree, and only then answering the caller once — per
// §4.6/P4, a NO vote or an unreachable branch anywhere in this node's
// subtree must be folded into the answer reported up to its parent, not
// just this node's own local outcome.
func handleWorkerConn(conn net.Conn, mgr *txlog.Manager, file string, pool *dml.PebblePageCache, dispatcher *broadcast.Dispatcher) {
	defer conn.Close()
	req, err := rpc.DecodeRequest(conn)
	if err != nil {
		return
	}

	entry := log.WithFields(log.Fields{"command": req.Command.String(), "tx": req.TxID})

	localOK, exceptMsg := localStep(req, mgr, file, pool, conn, entry)
	if exceptMsg != "" {
		rpc.WriteExcept(conn, exceptMsg)
		return
	}

	forwardOK := true
	children, decErr := spanning.Decode(req.Tree)
	if decErr == nil && len(children) > 0 {
		forwardOK = dispatcher.Broadcast(req.Command, req.TxID, req.Args, children)
	}

	if localOK && forwardOK {
		rpc.WriteOK(conn)
	} else {
		rpc.WriteNO(conn)
	}
}

// localStep runs req against this node's own state only, never touching
// any child branch. ok reports a legitimate vote (e.g. PREPARE declining
// is ok=false, not an exception); a non-empty exceptMsg instead signals a
// hard local failure that should short-circuit the reply immediately,
// without folding in the subtree's vote.
func localStep(req rpc.Request, mgr *txlog.Manager, file string, pool *dml.PebblePageCache, conn net.Conn, entry *log.Entry) (ok bool, exceptMsg string) {
	switch req.Command {
	case rpc.CmdPrepare:
		coordHost := conn.RemoteAddr().String()
		if err := mgr.Ready(req.TxID, coordHost, file); err != nil {
			entry.WithField("error", err.Error()).Error("worker: prepare")
			return false, ""
		}
		return true, ""
	case rpc.CmdLCommit:
		if err := mgr.Commit(req.TxID, file); err != nil {
			return false, err.Error()
		}
		return true, ""
	case rpc.CmdLRollback:
		if err := mgr.Rollback(req.TxID, file, func(rec txlog.Record) error {
			return txlog.Undo(rec, txn.NewPoolPageWriter(pool))
		}); err != nil {
			return false, err.Error()
		}
		return true, ""
	case rpc.CmdMassDelete:
		tx := txn.New(req.TxID, txn.ReadCommitted, mgr, file, pool)
		exec := &dml.Executor{Pool: pool, Indexes: map[string]collab.Index{}, MaxBatch: maxBatch}
		tables := make([]string, len(req.Args))
		for i, a := range req.Args {
			tables[i] = string(a)
		}
		if _, err := exec.MassDelete(tx, tables, prefetchReqSize, pagesInAdvance); err != nil {
			return false, err.Error()
		}
		return true, ""
	default:
		return false, fmt.Sprintf("shardsql: worker does not handle %s directly", req.Command)
	}
}

func waitForShutdown(mgr *txlog.Manager, l net.Listener, closers ...io.Closer) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	fmt.Println("shardsql: waiting for ^C to shutdown")
	<-ch
	fmt.Println("shardsql: shutting down")
	l.Close()
	mgr.Stop()
	for _, c := range closers {
		c.Close()
	}
	return nil
}
