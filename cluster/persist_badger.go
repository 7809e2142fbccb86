package cluster

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger"
)

// BadgerPersistence is an optional durability aid for the deferred-command
// queue: §4.9 specifies blacklist state as in-memory only, relying on
// recovery replaying commitment intent from the XA log after a crash. That
// leaves a window where deferred, non-XA operations (e.g. a blacklisted
// LROLLBCK not yet resolved by the XA log) would be silently dropped on a
// coordinator restart. BadgerPersistence closes that window by mirroring
// every MarkBlacklisted call to an embedded badger store, so PendingOps can
// be reloaded and re-enqueued at startup before the reaper begins.
type BadgerPersistence struct {
	db  *badger.DB
	seq uint64
}

// OpenBadgerPersistence opens (creating if absent) a badger store at dir.
func OpenBadgerPersistence(dir string) (*BadgerPersistence, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cluster: opening badger deferred-queue store: %w", err)
	}
	return &BadgerPersistence{db: db}, nil
}

func (p *BadgerPersistence) key(host string, seq uint64) []byte {
	b := make([]byte, len(host)+1+8)
	copy(b, host)
	b[len(host)] = 0
	binary.BigEndian.PutUint64(b[len(host)+1:], seq)
	return b
}

// Persist durably records op against host.
func (p *BadgerPersistence) Persist(host string, op PendingOp) error {
	p.seq++
	val := encodePendingOp(op)
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(p.key(host, p.seq), val)
	})
}

// Forget removes every persisted op for host, called once its pending
// queue has fully drained.
func (p *BadgerPersistence) Forget(host string) error {
	prefix := []byte(host + "\x00")
	return p.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll reloads every persisted host's pending ops, used to repopulate a
// freshly-started Blacklist before the reaper begins.
func (p *BadgerPersistence) LoadAll() (map[string][]PendingOp, error) {
	out := map[string][]PendingOp{}
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			nul := -1
			for i, c := range key {
				if c == 0 {
					nul = i
					break
				}
			}
			if nul < 0 {
				continue
			}
			host := string(key[:nul])
			err := item.Value(func(val []byte) error {
				op, err := decodePendingOp(val)
				if err != nil {
					return err
				}
				out[host] = append(out[host], op)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying badger store.
func (p *BadgerPersistence) Close() error {
	return p.db.Close()
}

func encodePendingOp(op PendingOp) []byte {
	size := 8 + 8 + 4
	for _, a := range op.Args {
		size += 4 + len(a)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, op.Command[:]...)
	var tx [8]byte
	binary.BigEndian.PutUint64(tx[:], op.TxID)
	buf = append(buf, tx[:]...)
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(op.Args)))
	buf = append(buf, n[:]...)
	for _, a := range op.Args {
		var al [4]byte
		binary.BigEndian.PutUint32(al[:], uint32(len(a)))
		buf = append(buf, al[:]...)
		buf = append(buf, a...)
	}
	return buf
}

func decodePendingOp(buf []byte) (PendingOp, error) {
	var op PendingOp
	if len(buf) < 20 {
		return op, fmt.Errorf("cluster: truncated pending op record")
	}
	copy(op.Command[:], buf[:8])
	op.TxID = binary.BigEndian.Uint64(buf[8:16])
	n := binary.BigEndian.Uint32(buf[16:20])
	buf = buf[20:]
	for i := uint32(0); i < n; i++ {
		if len(buf) < 4 {
			return op, fmt.Errorf("cluster: truncated pending op arg length")
		}
		al := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < al {
			return op, fmt.Errorf("cluster: truncated pending op arg")
		}
		op.Args = append(op.Args, buf[:al])
		buf = buf[al:]
	}
	return op, nil
}
