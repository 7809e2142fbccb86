package txlog

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/andreyvit/diff"
)

func roundTrip(t *testing.T, rec Record) Record {
	t.Helper()
	rec.setLSN(42)
	rec.setTimestamp(1234567)
	buf := EncodePayload(rec)
	got, err := DecodePayload(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestRecordRoundTrip(t *testing.T) {
	cases := []Record{
		NewStartRec(1),
		NewCommitRec(2),
		NewRollbackRec(3),
		NewNQCheckRec(nil),
		NewNQCheckRec([]uint64{7, 8}),
		NewInsertRec(4, Block{Path: "t1.dat", Number: 9}, 16, []byte("before"), []byte("after!")),
		NewDeleteRec(5, Block{Path: "t1.dat", Number: 9}, 32, []byte("was"), []byte("gone")),
		NewReadyRec(6, "coord.example.com"),
		NewNotReadyRec(7),
		NewPrepareRec(8, []string{"a", "b", "c"}),
		NewXACommitRec(9, []string{"a", "b"}),
		NewXAAbortRec(10, nil),
	}

	for _, want := range cases {
		got := roundTrip(t, want)
		if got.Type() != want.Type() {
			t.Fatalf("type mismatch: got %s want %s", got.Type(), want.Type())
		}
		if got.TxNum() != want.TxNum() {
			t.Fatalf("txnum mismatch: got %d want %d", got.TxNum(), want.TxNum())
		}
		if got.Timestamp() != want.Timestamp() {
			t.Fatalf("timestamp mismatch: got %d want %d", got.Timestamp(), want.Timestamp())
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("record mismatch:\n%s", diff.LineDiff(fmt.Sprintf("%#v", want), fmt.Sprintf("%#v", got)))
		}
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	rec := NewInsertRec(1, Block{Path: "x", Number: 1}, 0, []byte("a"), []byte("b"))
	rec.setLSN(1)
	buf := EncodePayload(rec)
	if _, err := DecodePayload(buf[:len(buf)-3]); err == nil {
		t.Fatalf("expected error decoding truncated payload")
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	buf := make([]byte, 17)
	buf[0] = 0xFE
	if _, err := DecodePayload(buf); err == nil {
		t.Fatalf("expected error for unknown type tag")
	}
}
