package rpc

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Command: CmdPrepare,
		TxID:    42,
		Args:    [][]byte{[]byte("host-a"), []byte("host-b")},
		Tree:    []byte("serialized-tree-blob"),
	}
	buf := EncodeRequest(req)

	got, err := DecodeRequest(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Command != req.Command {
		t.Fatalf("command mismatch: got %q want %q", got.Command, req.Command)
	}
	if got.TxID != req.TxID {
		t.Fatalf("txid mismatch: got %d want %d", got.TxID, req.TxID)
	}
	if len(got.Args) != len(req.Args) {
		t.Fatalf("arg count mismatch: got %d want %d", len(got.Args), len(req.Args))
	}
	for i := range req.Args {
		if !bytes.Equal(got.Args[i], req.Args[i]) {
			t.Fatalf("arg %d mismatch: got %q want %q", i, got.Args[i], req.Args[i])
		}
	}
	if !bytes.Equal(got.Tree, req.Tree) {
		t.Fatalf("tree mismatch: got %q want %q", got.Tree, req.Tree)
	}
}

func TestRequestWithNoArgsOrTree(t *testing.T) {
	req := Request{Command: CmdCheckTx, TxID: 7}
	buf := EncodeRequest(req)
	got, err := DecodeRequest(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TxID != 7 || len(got.Args) != 0 || len(got.Tree) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestCommandPadding(t *testing.T) {
	if CmdCommit.String() != "COMMIT  " {
		t.Fatalf("COMMIT padding: got %q", CmdCommit.String())
	}
	if CmdRollback.String() != "ROLLBACK" {
		t.Fatalf("ROLLBACK padding: got %q", CmdRollback.String())
	}
	if CmdPrepare.String() != "PREPARE " {
		t.Fatalf("PREPARE padding: got %q", CmdPrepare.String())
	}
}

func TestResponseOK(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOK(&buf); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadResponse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Exception {
		t.Fatalf("got %+v", resp)
	}
}

func TestResponseNO(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNO(&buf); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadResponse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if resp.OK || resp.Exception {
		t.Fatalf("got %+v", resp)
	}
}

func TestResponseExcept(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExcept(&buf, "device unreachable"); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadResponse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Exception || resp.Message != "device unreachable" {
		t.Fatalf("got %+v", resp)
	}
}
