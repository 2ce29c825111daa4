package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/mapper"
	"github.com/ldapdrv/ldapdrv/protocol"
)

// SearchRequest describes one search. Unset fields fall back to the
// connection's configured defaults.
type SearchRequest struct {
	// Base is the search base DN.
	Base string

	// Scope is the search scope. Requests built literally carry
	// ScopeBaseObject unless set; use NewSearchRequest to defer to the
	// connection default.
	Scope protocol.Scope

	// Filter is the search filter.
	Filter string

	// Attrs restricts the attributes requested from the server. Empty
	// requests all user attributes.
	Attrs []string

	// Timeout is handed to the engine's search call; enforcement is
	// delegated to the engine/server. Zero falls back to the connection
	// default.
	Timeout time.Duration

	// SizeLimit caps the number of entries the server returns. Zero means
	// no limit.
	SizeLimit int

	// AttrsOnly requests attribute types without values.
	AttrsOnly bool
}

// NewSearchRequest returns a request that defers base, scope and filter to
// the connection's configured defaults.
func NewSearchRequest() *SearchRequest {
	return &SearchRequest{Scope: protocol.ScopeUnspecified}
}

// SearchResult is the outcome of Search. Exactly one of Entries, Iter or
// the bare MessageID (asynchronous mode) carries the payload.
type SearchResult struct {
	// MessageID identifies the submitted operation. It is the only field
	// set in asynchronous mode.
	MessageID int

	// Async reports whether result discovery was deferred to GetResult.
	Async bool

	// Pending reports that a synchronous blocking poll returned without a
	// message; the caller may poll MessageID again.
	Pending bool

	// Entries is the flat result set of a synchronous, unpaged search.
	Entries []*mapper.Entry

	// Iter is the iterator of a synchronous, paged search.
	Iter *SearchIter
}

// Search submits a search operation. Synchronous connections drive the
// dispatcher immediately: without paging the single page is flattened into
// Entries, with paging the iterator is returned so the caller can inspect
// the cookie and page further. Asynchronous connections receive only the
// message id.
func (c *Connection) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if c.stateMgr.GetState() != CONNECTED {
		return nil, ErrInvalidState("Search", CONNECTED, c.stateMgr.GetState())
	}
	if req == nil {
		req = NewSearchRequest()
	}

	it, err := c.newSearchIter(req)
	if err != nil {
		return nil, err
	}

	msgid, err := c.submitSearch(ctx, it)
	if err != nil {
		return nil, err
	}

	if c.async {
		return &SearchResult{MessageID: msgid, Async: true}, nil
	}

	res, err := c.dispatch(ctx, msgid, true)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case StatusEntries:
		return &SearchResult{MessageID: msgid, Entries: res.Entries}, nil
	case StatusIterator:
		if !it.pagingActive {
			// Single page convenience: flatten into a plain sequence.
			return &SearchResult{MessageID: msgid, Entries: res.Iter.Entries()}, nil
		}
		return &SearchResult{MessageID: msgid, Iter: res.Iter}, nil
	case StatusPending:
		return &SearchResult{MessageID: msgid, Pending: true}, nil
	default:
		return nil, newProtocolError("E_DISPATCH",
			"unexpected dispatch outcome for search",
			map[string]interface{}{"status": res.Status.String()})
	}
}

// newSearchIter resolves the request against the connection defaults and
// builds the iterator in its created state.
func (c *Connection) newSearchIter(req *SearchRequest) (*SearchIter, error) {
	base := req.Base
	if base == "" {
		base = c.opts.DefaultBase
	}
	if base == "" {
		return nil, newParameterError("search base DN cannot be empty", nil)
	}

	scope := req.Scope
	if scope == protocol.ScopeUnspecified {
		scope = c.opts.DefaultScope
	}
	if !scope.Valid() {
		return nil, newParameterError("search scope cannot be unspecified",
			map[string]interface{}{"scope": int(scope)})
	}

	filter := req.Filter
	if filter == "" {
		filter = c.opts.DefaultFilter
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.opts.DefaultTimeout
	}

	it := &SearchIter{
		conn:      c,
		base:      base,
		scope:     scope,
		filter:    filter,
		attrs:     append([]string(nil), req.Attrs...),
		attrsOnly: req.AttrsOnly,
		timeout:   timeout,
		sizeLimit: req.SizeLimit,
		state:     IterCreated,
	}
	if c.pageSize > 1 {
		it.pagingActive = true
		it.cookie = []byte{}
	}
	return it, nil
}

// submitSearch builds the transient controls, hands the search to the
// engine and registers the returned message id. Nothing is registered on
// engine failure.
func (c *Connection) submitSearch(ctx context.Context, it *SearchIter) (int, error) {
	traceID := uuid.New().String()

	ctrls, err := buildSearchControls(c.session, c.pageSize, it.cookie, c.sortSpec)
	if err != nil {
		return 0, err
	}

	params := engine.SearchParams{
		Base:      it.base,
		Scope:     it.scope,
		Filter:    it.filter,
		Attrs:     it.attrs,
		AttrsOnly: it.attrsOnly,
		Timeout:   it.timeout,
		SizeLimit: it.sizeLimit,
		Controls:  ctrls,
	}

	msgid, err := c.session.SearchSubmit(ctx, params)
	if err != nil {
		return 0, mapEngineError(err)
	}

	if err := c.pending.register(msgid, it); err != nil {
		return 0, err
	}
	it.state = IterSubmitted
	it.msgid = msgid

	c.logger.Debug("search submitted",
		String("trace_id", traceID),
		Int("msgid", msgid),
		String("base", it.base),
		String("scope", it.scope.String()),
		String("filter", it.filter),
		Int("controls", len(ctrls)),
		Uint64("cookie_fp", cookieFingerprint(it.cookie)))

	return msgid, nil
}
