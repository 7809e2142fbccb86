package txlog

import (
	"encoding/binary"
	"fmt"
)

// EncodePayload serializes a record's type tag and fields. It does not
// include the outer u32 size prefix/suffix framing (§3); that is the
// concern of the file store, since only it knows the byte offset records
// live at.
func EncodePayload(rec Record) []byte {
	buf := []byte{byte(rec.Type())}
	buf = putUint64(buf, rec.LSN())
	buf = putUint64(buf, uint64(rec.Timestamp()))

	switch r := rec.(type) {
	case *StartRec:
		buf = putUint64(buf, r.tx)
	case *CommitRec:
		buf = putUint64(buf, r.tx)
	case *RollbackRec:
		buf = putUint64(buf, r.tx)
	case *NQCheckRec:
		buf = putUint32(buf, uint32(len(r.ActiveSet)))
		for _, tx := range r.ActiveSet {
			buf = putUint64(buf, tx)
		}
	case *InsertRec:
		buf = putUint64(buf, r.tx)
		buf = putBlock(buf, r.Block)
		buf = putUint32(buf, uint32(r.Offset))
		buf = putBytes(buf, r.Before)
		buf = putBytes(buf, r.After)
	case *DeleteRec:
		buf = putUint64(buf, r.tx)
		buf = putBlock(buf, r.Block)
		buf = putUint32(buf, uint32(r.Offset))
		buf = putBytes(buf, r.Before)
		buf = putBytes(buf, r.After)
	case *ReadyRec:
		buf = putUint64(buf, r.tx)
		buf = putString(buf, r.Host)
	case *NotReadyRec:
		buf = putUint64(buf, r.tx)
	case *PrepareRec:
		buf = putUint64(buf, r.tx)
		buf = putStrings(buf, r.Participants)
	case *XACommitRec:
		buf = putUint64(buf, r.tx)
		buf = putStrings(buf, r.Participants)
	case *XAAbortRec:
		buf = putUint64(buf, r.tx)
		buf = putStrings(buf, r.Participants)
	default:
		panic(fmt.Sprintf("txlog: encode called on unknown record type %T", rec))
	}
	return buf
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(buf []byte) (Record, error) {
	if len(buf) < 1+8+8 {
		return nil, fmt.Errorf("txlog: record payload too short: %d bytes", len(buf))
	}
	typ := Type(buf[0])
	buf = buf[1:]
	lsn, buf, err := getUint64(buf)
	if err != nil {
		return nil, err
	}
	ts, buf, err := getUint64(buf)
	if err != nil {
		return nil, err
	}

	var rec Record
	switch typ {
	case TypeStart:
		tx, _, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		rec = NewStartRec(tx)
	case TypeCommit:
		tx, _, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		rec = NewCommitRec(tx)
	case TypeRollback:
		tx, _, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		rec = NewRollbackRec(tx)
	case TypeNQCheck:
		n, rest, err := getUint32(buf)
		if err != nil {
			return nil, err
		}
		active := make([]uint64, 0, n)
		for i := uint32(0); i < n; i++ {
			var tx uint64
			tx, rest, err = getUint64(rest)
			if err != nil {
				return nil, err
			}
			active = append(active, tx)
		}
		rec = NewNQCheckRec(active)
	case TypeInsert, TypeDelete:
		tx, rest, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		b, rest, err := getBlock(rest)
		if err != nil {
			return nil, err
		}
		off, rest, err := getUint32(rest)
		if err != nil {
			return nil, err
		}
		before, rest, err := getBytes(rest)
		if err != nil {
			return nil, err
		}
		after, _, err := getBytes(rest)
		if err != nil {
			return nil, err
		}
		if typ == TypeInsert {
			rec = NewInsertRec(tx, b, int32(off), before, after)
		} else {
			rec = NewDeleteRec(tx, b, int32(off), before, after)
		}
	case TypeReady:
		tx, rest, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		host, _, err := getString(rest)
		if err != nil {
			return nil, err
		}
		rec = NewReadyRec(tx, host)
	case TypeNotReady:
		tx, _, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		rec = NewNotReadyRec(tx)
	case TypePrepare, TypeXACommit, TypeXAAbort:
		tx, rest, err := getUint64(buf)
		if err != nil {
			return nil, err
		}
		parts, _, err := getStrings(rest)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypePrepare:
			rec = NewPrepareRec(tx, parts)
		case TypeXACommit:
			rec = NewXACommitRec(tx, parts)
		default:
			rec = NewXAAbortRec(tx, parts)
		}
	default:
		return nil, fmt.Errorf("txlog: unknown record type tag %d", typ)
	}
	rec.setLSN(lsn)
	rec.setTimestamp(int64(ts))
	return rec, nil
}

func putUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putBytes(buf, b []byte) []byte {
	buf = putUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func putString(buf []byte, s string) []byte {
	return putBytes(buf, []byte(s))
}

func putStrings(buf []byte, ss []string) []byte {
	buf = putUint32(buf, uint32(len(ss)))
	for _, s := range ss {
		buf = putString(buf, s)
	}
	return buf
}

func putBlock(buf []byte, b Block) []byte {
	buf = putString(buf, b.Path)
	return putUint64(buf, b.Number)
}

func getUint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("txlog: truncated u32 field")
	}
	return binary.BigEndian.Uint32(buf), buf[4:], nil
}

func getUint64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("txlog: truncated u64 field")
	}
	return binary.BigEndian.Uint64(buf), buf[8:], nil
}

func getBytes(buf []byte) ([]byte, []byte, error) {
	n, rest, err := getUint32(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, fmt.Errorf("txlog: truncated byte field: want %d have %d", n, len(rest))
	}
	return rest[:n], rest[n:], nil
}

func getString(buf []byte) (string, []byte, error) {
	b, rest, err := getBytes(buf)
	if err != nil {
		return "", nil, err
	}
	return string(b), rest, nil
}

func getStrings(buf []byte) ([]string, []byte, error) {
	n, rest, err := getUint32(buf)
	if err != nil {
		return nil, nil, err
	}
	ss := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		var s string
		s, rest, err = getString(rest)
		if err != nil {
			return nil, nil, err
		}
		ss = append(ss, s)
	}
	return ss, rest, nil
}

func getBlock(buf []byte) (Block, []byte, error) {
	path, rest, err := getString(buf)
	if err != nil {
		return Block{}, nil, err
	}
	num, rest, err := getUint64(rest)
	if err != nil {
		return Block{}, nil, err
	}
	return Block{Path: path, Number: num}, rest, nil
}
