package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

func TestWriteRequest_ReadBack(t *testing.T) {
	tests := []Request{
		{Op: domain.OpRegister, Identity: "alice"},
		{Op: domain.OpConnect, Identity: "alice", Port: "9000"},
		{Op: domain.OpPublish, Identity: "alice", Name: "report", Description: "q1; notes"},
		{Op: domain.OpDelete, Identity: "alice", Name: "report"},
		{Op: domain.OpListContent, Identity: "alice", Target: "bob"},
	}

	for _, want := range tests {
		t.Run(want.Op.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)
			if err := WriteRequest(w, want); err != nil {
				t.Fatalf("WriteRequest() error = %v", err)
			}
			_ = w.Flush()

			r := bufio.NewReader(&buf)
			op, err := ReadOp(r)
			if err != nil {
				t.Fatalf("ReadOp() error = %v", err)
			}
			got, err := ReadArgs(r, op)
			if err != nil {
				t.Fatalf("ReadArgs() error = %v", err)
			}
			if got != want {
				t.Errorf("ReadArgs() = %+v, want %+v", got, want)
			}
			if r.Buffered() != 0 {
				t.Errorf("%d bytes left unread", r.Buffered())
			}
		})
	}
}

func TestWriteRequest_Layout(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	req := Request{Op: domain.OpConnect, Identity: "alice", Port: "9000", Name: "ignored"}
	if err := WriteRequest(w, req); err != nil {
		t.Fatalf("WriteRequest() error = %v", err)
	}
	_ = w.Flush()

	if got, want := buf.String(), "CONNECT\x00alice\x009000\x00"; got != want {
		t.Errorf("WriteRequest() wrote %q, want %q", got, want)
	}
}

func TestReadOp_Unknown(t *testing.T) {
	for _, tok := range []string{"register\x00", "GET_FILE\x00", "\x00"} {
		_, err := ReadOp(reader(tok))
		if !errors.Is(err, ErrUnknownOp) {
			t.Errorf("ReadOp(%q) error = %v, want ErrUnknownOp", tok, err)
		}
	}
}

func TestReadArgs_ShortRead(t *testing.T) {
	_, err := ReadArgs(reader("alice\x00report\x00"), domain.OpPublish)
	if err == nil {
		t.Fatal("ReadArgs() expected error for missing description")
	}
}

func TestReadResponse_ListUsers(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	sessions := []domain.Session{
		{Identity: "alice", Endpoint: domain.Endpoint{IP: "10.0.0.1", Port: "9000"}},
		{Identity: "bob", Endpoint: domain.Endpoint{IP: "10.0.0.2", Port: "9001"}},
	}
	_ = w.WriteByte(Normalized.Encode(domain.OpListUsers, domain.StatusOK))
	_ = WriteCount(w, len(sessions))
	for _, s := range sessions {
		if err := WriteSession(w, s); err != nil {
			t.Fatalf("WriteSession() error = %v", err)
		}
	}
	_ = w.Flush()

	resp, err := ReadResponse(bufio.NewReader(&buf), domain.OpListUsers, Normalized)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.Status != domain.StatusOK {
		t.Fatalf("ReadResponse() status = %v", resp.Status)
	}
	if len(resp.Sessions) != 2 || resp.Sessions[0] != sessions[0] || resp.Sessions[1] != sessions[1] {
		t.Errorf("ReadResponse() sessions = %+v", resp.Sessions)
	}
}

func TestReadResponse_ListContent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	_ = w.WriteByte('0')
	_ = WriteCount(w, 1)
	_ = WriteEntry(w, domain.CatalogEntry{Name: "report", Description: "q1 notes"})
	_ = w.Flush()

	resp, err := ReadResponse(bufio.NewReader(&buf), domain.OpListContent, Legacy)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	want := domain.CatalogEntry{Name: "report", Description: "q1 notes"}
	if len(resp.Entries) != 1 || resp.Entries[0] != want {
		t.Errorf("ReadResponse() entries = %+v", resp.Entries)
	}
}

func TestReadResponse_StatusOnly(t *testing.T) {
	resp, err := ReadResponse(reader("2"), domain.OpListUsers, Normalized)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.Status != domain.StatusNotConnected {
		t.Errorf("ReadResponse() status = %v, want not_connected", resp.Status)
	}
	if resp.Sessions != nil {
		t.Errorf("ReadResponse() sessions = %+v, want none", resp.Sessions)
	}
}
