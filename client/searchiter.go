package client

import (
	"context"
	"time"

	"github.com/cespare/xxhash"

	"github.com/ldapdrv/ldapdrv/mapper"
	"github.com/ldapdrv/ldapdrv/protocol"
)

// IterState is the lifecycle state of a search iterator.
type IterState int

const (
	// IterCreated means parameters are set but nothing was submitted.
	IterCreated IterState = iota
	// IterSubmitted means a message id is assigned and registered.
	IterSubmitted
	// IterPageReceived is the transient state while a page is drained.
	IterPageReceived
	// IterAwaitingNextPage means a page was delivered with a non-empty
	// cookie; the iterator left the table and can be resubmitted.
	IterAwaitingNextPage
	// IterExhausted means the last page was delivered. Terminal.
	IterExhausted
)

// String returns the string representation of the iterator state.
func (s IterState) String() string {
	switch s {
	case IterCreated:
		return "CREATED"
	case IterSubmitted:
		return "SUBMITTED"
	case IterPageReceived:
		return "PAGE_RECEIVED"
	case IterAwaitingNextPage:
		return "AWAITING_NEXT_PAGE"
	case IterExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// SearchIter is the per-search state spanning possibly many result pages:
// the search parameters, the entry buffer of the most recent page, and the
// server's opaque continuation cookie. It is mutated only by the result
// dispatcher.
type SearchIter struct {
	conn *Connection

	base      string
	scope     protocol.Scope
	filter    string
	attrs     []string
	attrsOnly bool
	timeout   time.Duration
	sizeLimit int

	buffer       []*mapper.Entry
	cookie       []byte
	pagingActive bool
	state        IterState
	msgid        int
}

// Entries returns the entry buffer of the most recent page.
func (it *SearchIter) Entries() []*mapper.Entry {
	return it.buffer
}

// Cookie returns a copy of the current continuation cookie. A zero length
// cookie means no further pages.
func (it *SearchIter) Cookie() []byte {
	return append([]byte(nil), it.cookie...)
}

// HasMore reports whether the server indicated further pages.
func (it *SearchIter) HasMore() bool {
	return it.pagingActive && len(it.cookie) > 0
}

// State returns the iterator's lifecycle state.
func (it *SearchIter) State() IterState {
	return it.state
}

// MessageID returns the message id of the outstanding submission, or 0
// when the iterator is not submitted.
func (it *SearchIter) MessageID() int {
	return it.msgid
}

// AcquireNextPage resubmits the search with the carried cookie under a new
// message id and returns that id without waiting for the result. The
// caller drives GetResult.
func (it *SearchIter) AcquireNextPage(ctx context.Context) (int, error) {
	if it.state != IterAwaitingNextPage {
		return 0, newProtocolError("E_ITER_STATE",
			"iterator has no further page to acquire",
			map[string]interface{}{"state": it.state.String()})
	}
	return it.conn.submitSearch(ctx, it)
}

// NextPage resubmits the search with the carried cookie and blocks until
// the next page is delivered, refilling the iterator's buffer in place. It
// returns false without error when the sequence is exhausted.
func (it *SearchIter) NextPage(ctx context.Context) (bool, error) {
	if !it.HasMore() {
		return false, nil
	}

	msgid, err := it.conn.submitSearch(ctx, it)
	if err != nil {
		return false, err
	}

	for {
		res, err := it.conn.dispatch(ctx, msgid, true)
		if err != nil {
			return false, err
		}
		if res.Status != StatusPending {
			return len(it.buffer) > 0 || it.HasMore(), nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
}

// cookieFingerprint returns a stable 64-bit fingerprint of the cookie for
// logging; the opaque cookie bytes themselves never reach the logs.
func cookieFingerprint(cookie []byte) uint64 {
	if len(cookie) == 0 {
		return 0
	}
	return xxhash.Sum64(cookie)
}
