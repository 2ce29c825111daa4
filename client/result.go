package client

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/mapper"
	"github.com/ldapdrv/ldapdrv/protocol"
)

// PollStatus classifies the outcome of one poll.
type PollStatus int

const (
	// StatusPending means no result is available yet: a non-blocking poll
	// found nothing, or a blocking poll returned without a message. The
	// table entry is untouched and the caller may poll again.
	StatusPending PollStatus = iota

	// StatusCompleted means a non-search operation finished successfully.
	StatusCompleted

	// StatusEntries means a search finished and the final page is
	// returned directly as a flat entry sequence.
	StatusEntries

	// StatusIterator means a search page was delivered; the iterator
	// carries the buffered entries and the continuation cookie.
	StatusIterator
)

// String returns the string representation of the poll status.
func (s PollStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusEntries:
		return "ENTRIES"
	case StatusIterator:
		return "ITERATOR"
	default:
		return "UNKNOWN"
	}
}

// PollResult is the outcome of polling one message id.
type PollResult struct {
	Status  PollStatus
	Entries []*mapper.Entry
	Iter    *SearchIter
}

// GetResult polls the status of the operation associated with msgid. On a
// synchronous connection the poll blocks until the engine delivers a
// message; on an asynchronous connection it returns immediately with
// StatusPending when nothing has arrived yet.
func (c *Connection) GetResult(ctx context.Context, msgid int) (*PollResult, error) {
	if c.stateMgr.GetState() != CONNECTED {
		return nil, ErrInvalidState("GetResult", CONNECTED, c.stateMgr.GetState())
	}
	return c.dispatch(ctx, msgid, !c.async)
}

// dispatch polls the engine for msgid and classifies the message,
// updating the operation table and iterator state accordingly.
func (c *Connection) dispatch(ctx context.Context, msgid int, blocking bool) (*PollResult, error) {
	traceID := uuid.New().String()

	// A finalized or never-submitted id never yields a silent empty
	// success.
	if !c.pending.contains(msgid) {
		return nil, newProtocolError("E_UNKNOWN_MSGID",
			"no pending operation for message id",
			map[string]interface{}{"msgid": msgid})
	}

	msg, err := c.session.Poll(ctx, msgid, blocking)
	if err != nil {
		// Engine failure: map the reported code, leave the table entry
		// untouched so the caller decides what happens to the operation.
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			return nil, directoryError(engErr.Code, err)
		}
		return nil, err
	}

	if msg == nil {
		// Nothing delivered yet. Neutral for both poll modes.
		return &PollResult{Status: StatusPending}, nil
	}

	if c.debugMode.Load() {
		c.logger.Debug("message received",
			String("trace_id", traceID),
			Int("msgid", msgid),
			String("kind", msg.Kind.String()),
			Int("entries", len(msg.Entries)),
			Int("result_code", int(msg.ResultCode)))
	}

	switch msg.Kind {
	case engine.KindSearchEntry:
		// Standalone entries are not delivered in the all-messages poll
		// mode; entries arrive bundled with the terminating result.
		return &PollResult{Status: StatusPending}, nil

	case engine.KindSearchResult:
		return c.dispatchSearchResult(msgid, msg, traceID)

	default:
		// Extended responses and every other terminal response share the
		// generic completion path.
		return c.dispatchCompletion(msgid, msg)
	}
}

// dispatchSearchResult handles the terminating message of a search: drain
// the bundled entries into a fresh buffer, classify the final result code,
// and thread the continuation cookie.
func (c *Connection) dispatchSearchResult(msgid int, msg *engine.Message, traceID string) (*PollResult, error) {
	it, hasIter, found := c.pending.takeIter(msgid)
	if !found || !hasIter {
		return nil, newProtocolError("E_UNKNOWN_MSGID",
			"no pending search for message id",
			map[string]interface{}{"msgid": msgid})
	}

	// The buffer is replaced fresh for every page, never appended to
	// stale data.
	it.state = IterPageReceived
	it.buffer = make([]*mapper.Entry, 0, len(msg.Entries))
	for _, raw := range msg.Entries {
		it.buffer = append(it.buffer, c.materializer.Materialize(raw, c))
	}

	if msg.ResultCode == protocol.NoSuchObject {
		// An absent search base yields whatever was gathered, not an
		// error.
		it.cookie = nil
		it.state = IterExhausted
		it.msgid = 0
		return &PollResult{Status: StatusEntries, Entries: it.buffer}, nil
	}

	if !msg.ResultCode.IsSuccess() {
		it.buffer = nil
		return nil, directoryError(msg.ResultCode, nil)
	}

	cookie, ok, err := c.extractor.NextCookie(msg.Controls)
	if err != nil {
		return nil, newProtocolError("E_PAGE_CONTROL",
			"failed to parse paged results response control",
			map[string]interface{}{"msgid": msgid, "cause": err.Error()})
	}
	if ok {
		it.cookie = cookie
	} else {
		it.cookie = nil
	}

	it.msgid = 0
	if it.HasMore() {
		it.state = IterAwaitingNextPage
	} else {
		it.state = IterExhausted
	}

	c.logger.Debug("search page delivered",
		String("trace_id", traceID),
		Int("msgid", msgid),
		Int("entries", len(it.buffer)),
		Bool("has_more", it.HasMore()),
		Uint64("cookie_fp", cookieFingerprint(it.cookie)))

	return &PollResult{Status: StatusIterator, Iter: it}, nil
}

// dispatchCompletion handles the terminal response of a non-search
// operation class, extended responses included.
func (c *Connection) dispatchCompletion(msgid int, msg *engine.Message) (*PollResult, error) {
	if msg.ResultCode != protocol.Success {
		return nil, directoryError(msg.ResultCode, nil)
	}
	if !c.pending.remove(msgid) {
		return nil, newProtocolError("E_UNKNOWN_MSGID",
			"no pending operation for message id",
			map[string]interface{}{"msgid": msgid})
	}
	return &PollResult{Status: StatusCompleted}, nil
}
