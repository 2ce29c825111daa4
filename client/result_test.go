package client

import (
	"context"
	"errors"
	"testing"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/protocol"
)

func TestDispatchEngineErrorLeavesTableUntouched(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})
	sess.WithDirectory(testDirectory(1))

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	sess.WithPollError(&engine.Error{Code: protocol.Busy, Message: "try later"})

	_, err = conn.GetResult(context.Background(), res.MessageID)
	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) || dirErr.ResultCode != protocol.Busy {
		t.Fatalf("expected DirectoryError(Busy), got %v", err)
	}
	if conn.Pending() != 1 {
		t.Errorf("engine failure must leave the table entry for the caller, pending = %d", conn.Pending())
	}

	// The caller decides: clearing the fault lets the same id resolve.
	sess.WithPollError(nil)
	pr, err := conn.GetResult(context.Background(), res.MessageID)
	if err != nil {
		t.Fatalf("GetResult after recovery: %v", err)
	}
	if pr.Status != StatusEntries && pr.Status != StatusIterator {
		t.Errorf("unexpected status after recovery: %s", pr.Status)
	}
}

func TestDispatchNothingYetIsNeutral(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})
	sess.WithAutoResults(false)

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for i := 0; i < 3; i++ {
		pr, err := conn.GetResult(context.Background(), res.MessageID)
		if err != nil {
			t.Fatalf("GetResult: %v", err)
		}
		if pr.Status != StatusPending {
			t.Fatalf("expected StatusPending, got %s", pr.Status)
		}
	}
	if conn.Pending() != 1 {
		t.Errorf("neutral polls must not disturb the table, pending = %d", conn.Pending())
	}
}

func TestDispatchUnknownMsgID(t *testing.T) {
	conn, _ := newTestConnection(t, nil)

	_, err := conn.GetResult(context.Background(), 99)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != "E_UNKNOWN_MSGID" {
		t.Fatalf("expected E_UNKNOWN_MSGID, got %v", err)
	}
}

func TestDispatchNoSuchObjectYieldsEmptyResult(t *testing.T) {
	conn, sess := newTestConnection(t, nil)
	sess.WithResultCode(protocol.NoSuchObject)

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "ou=absent,dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("an absent base must not be an error, got %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("expected an empty entry sequence, got %v", res.Entries)
	}
	if conn.Pending() != 0 {
		t.Errorf("table not empty after terminal result")
	}
}

func TestDispatchFailedSearchDiscardsBuffer(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})
	sess.WithAutoResults(false)

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	sess.QueueMessage(res.MessageID, &engine.Message{
		Kind:       engine.KindSearchResult,
		Entries:    testDirectory(2),
		ResultCode: protocol.InsufficientAccess,
	})

	_, err = conn.GetResult(context.Background(), res.MessageID)
	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) || dirErr.ResultCode != protocol.InsufficientAccess {
		t.Fatalf("expected DirectoryError(InsufficientAccess), got %v", err)
	}
	if conn.Pending() != 0 {
		t.Errorf("failed search must clear its table entry, pending = %d", conn.Pending())
	}
}

func TestDispatchPartialResultsIsSuccess(t *testing.T) {
	conn, sess := newTestConnection(t, nil)
	sess.WithDirectory(testDirectory(2)).WithResultCode(protocol.PartialResults)

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("PartialResults must be success, got %v", err)
	}
	if len(res.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(res.Entries))
	}
}

func TestDispatchGenericCompletion(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})

	// Register a pending non-search operation by hand and complete it.
	if err := conn.pending.register(41, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess.QueueMessage(41, &engine.Message{
		Kind:       engine.KindResultDone,
		ResultCode: protocol.Success,
	})

	pr, err := conn.GetResult(context.Background(), 41)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if pr.Status != StatusCompleted {
		t.Errorf("expected StatusCompleted, got %s", pr.Status)
	}
	if conn.Pending() != 0 {
		t.Errorf("completed operation must leave the table")
	}
}

func TestDispatchGenericFailure(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})

	if err := conn.pending.register(42, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess.QueueMessage(42, &engine.Message{
		Kind:       engine.KindResultDone,
		ResultCode: protocol.UnwillingToPerform,
	})

	_, err := conn.GetResult(context.Background(), 42)
	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) || dirErr.ResultCode != protocol.UnwillingToPerform {
		t.Fatalf("expected DirectoryError(UnwillingToPerform), got %v", err)
	}
}

func TestDispatchExtendedResponseCompletes(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})

	if err := conn.pending.register(43, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess.QueueMessage(43, &engine.Message{
		Kind:       engine.KindExtended,
		ResultCode: protocol.Success,
	})

	pr, err := conn.GetResult(context.Background(), 43)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if pr.Status != StatusCompleted {
		t.Errorf("extended response must complete generically, got %s", pr.Status)
	}
}

func TestDispatchStandaloneEntryIsNeutral(t *testing.T) {
	conn, sess := newTestConnection(t, func(opts *ClientOptions) {
		opts.Async = true
	})
	sess.WithAutoResults(false)

	res, err := conn.Search(context.Background(), &SearchRequest{
		Base: "dc=example,dc=com", Scope: protocol.ScopeWholeSubtree,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	sess.QueueMessage(res.MessageID, &engine.Message{
		Kind:    engine.KindSearchEntry,
		Entries: testDirectory(1),
	})

	pr, err := conn.GetResult(context.Background(), res.MessageID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if pr.Status != StatusPending {
		t.Errorf("standalone entries are not surfaced, got %s", pr.Status)
	}
	if conn.Pending() != 1 {
		t.Errorf("table must be untouched by a standalone entry")
	}
}
