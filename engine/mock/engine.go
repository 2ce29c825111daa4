// Package mock provides an in-memory, scriptable implementation of the
// engine interfaces for testing the driver without a directory server.
package mock

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/protocol"
)

// Engine implements engine.Engine for testing.
type Engine struct {
	mu        sync.Mutex
	initErr   error
	session   *Session
	initCalls atomic.Int32

	lastURL    string
	lastPolicy engine.CertPolicy
}

// NewEngine creates a new mock engine.
func NewEngine() *Engine {
	return &Engine{session: NewSession()}
}

// WithInitError configures InitSession to fail.
func (e *Engine) WithInitError(err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initErr = err
	return e
}

// Session returns the session every InitSession call hands out, so tests
// can script it before and inspect it after driving the client.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// InitCalls returns the number of InitSession invocations.
func (e *Engine) InitCalls() int {
	return int(e.initCalls.Load())
}

// LastURL returns the URL passed to the most recent InitSession call.
func (e *Engine) LastURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastURL
}

// LastPolicy returns the certificate policy of the most recent InitSession
// call.
func (e *Engine) LastPolicy() engine.CertPolicy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPolicy
}

// InitSession implements engine.Engine.
func (e *Engine) InitSession(ctx context.Context, url string, policy engine.CertPolicy) (engine.Session, error) {
	e.initCalls.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastURL = url
	e.lastPolicy = policy
	if e.initErr != nil {
		return nil, e.initErr
	}
	return e.session, nil
}

// BindArgs records the arguments of a Bind call.
type BindArgs struct {
	Mechanism string
	User      string
	Password  string
	Realm     string
	AuthzID   string
}

// Session implements engine.Session with scriptable behavior. By default a
// search submission immediately queues its terminating result message,
// paged according to any paged results control on the request; tests that
// need finer control disable auto results and queue messages by hand.
type Session struct {
	mu sync.Mutex

	// Behavior configuration
	startTLSErr  error
	bindErr      error
	submitErr    error
	pollErr      error
	controlErr   error
	abandonErr   error
	unbindErr    error
	deleteErr    error
	addErr       error
	whoAmIResp   string
	whoAmIErr    error
	resultCode   protocol.ResultCode
	autoResults  bool
	directory    []engine.RawEntry
	extraCtrls   []engine.Control

	// Call tracking
	calls      []string
	bindArgs   *BindArgs
	tlsStarted bool
	unbound    bool
	abandoned  []int
	deleted    []string
	added      []string
	searches   map[int]engine.SearchParams
	queues     map[int][]*engine.Message
	nextMsgID  int
}

// NewSession creates a scriptable session with auto results enabled.
func NewSession() *Session {
	return &Session{
		resultCode:  protocol.Success,
		autoResults: true,
		searches:    make(map[int]engine.SearchParams),
		queues:      make(map[int][]*engine.Message),
	}
}

// WithStartTLSError configures StartTLS to fail.
func (s *Session) WithStartTLSError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTLSErr = err
	return s
}

// WithBindError configures Bind to fail.
func (s *Session) WithBindError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindErr = err
	return s
}

// WithSubmitError configures SearchSubmit to fail.
func (s *Session) WithSubmitError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitErr = err
	return s
}

// WithPollError configures Poll to fail.
func (s *Session) WithPollError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErr = err
	return s
}

// WithControlError configures both control builders to fail.
func (s *Session) WithControlError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controlErr = err
	return s
}

// WithAbandonError configures Abandon to fail.
func (s *Session) WithAbandonError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonErr = err
	return s
}

// WithUnbindError configures Unbind to fail.
func (s *Session) WithUnbindError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unbindErr = err
	return s
}

// WithDeleteError configures Delete to fail.
func (s *Session) WithDeleteError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
	return s
}

// WithAddError configures Add to fail.
func (s *Session) WithAddError(err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addErr = err
	return s
}

// WithWhoAmI configures the WhoAmI response.
func (s *Session) WithWhoAmI(authzID string, err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whoAmIResp = authzID
	s.whoAmIErr = err
	return s
}

// WithResultCode configures the result code carried by auto-generated
// search result messages.
func (s *Session) WithResultCode(code protocol.ResultCode) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultCode = code
	return s
}

// WithAutoResults enables or disables automatic result generation for
// search submissions.
func (s *Session) WithAutoResults(enabled bool) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoResults = enabled
	return s
}

// WithDirectory loads the entry set served by auto-generated results.
func (s *Session) WithDirectory(entries []engine.RawEntry) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = entries
	return s
}

// WithExtraResponseControls appends controls to every auto-generated search
// result message.
func (s *Session) WithExtraResponseControls(ctrls []engine.Control) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extraCtrls = ctrls
	return s
}

// QueueMessage enqueues a message to be delivered by Poll for msgid.
func (s *Session) QueueMessage(msgid int, msg *engine.Message) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[msgid] = append(s.queues[msgid], msg)
	return s
}

// Calls returns the ordered names of session methods invoked so far.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// LastBind returns the arguments of the most recent Bind call, or nil.
func (s *Session) LastBind() *BindArgs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindArgs
}

// Abandoned returns the message ids passed to Abandon.
func (s *Session) Abandoned() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.abandoned...)
}

// Unbound reports whether Unbind completed.
func (s *Session) Unbound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unbound
}

// Deleted returns the DNs passed to Delete.
func (s *Session) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Added returns the DNs passed to Add.
func (s *Session) Added() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.added...)
}

// SearchParams returns the parameters recorded for a submitted search.
func (s *Session) SearchParams(msgid int) (engine.SearchParams, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.searches[msgid]
	return p, ok
}

// StartTLS implements engine.Session.
func (s *Session) StartTLS(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "starttls")
	if s.startTLSErr != nil {
		return s.startTLSErr
	}
	s.tlsStarted = true
	return nil
}

// Bind implements engine.Session.
func (s *Session) Bind(ctx context.Context, mechanism, user, password, realm, authzID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "bind")
	s.bindArgs = &BindArgs{
		Mechanism: mechanism,
		User:      user,
		Password:  password,
		Realm:     realm,
		AuthzID:   authzID,
	}
	return s.bindErr
}

// SearchSubmit implements engine.Session.
func (s *Session) SearchSubmit(ctx context.Context, p engine.SearchParams) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "search")
	if s.submitErr != nil {
		return 0, s.submitErr
	}

	s.nextMsgID++
	msgid := s.nextMsgID
	s.searches[msgid] = p

	if s.autoResults {
		s.queues[msgid] = append(s.queues[msgid], s.resultFor(p))
	}
	return msgid, nil
}

// resultFor builds the terminating search result message for a submission,
// honoring a paged results request control if one is attached.
// Callers hold s.mu.
func (s *Session) resultFor(p engine.SearchParams) *engine.Message {
	msg := &engine.Message{
		Kind:       engine.KindSearchResult,
		ResultCode: s.resultCode,
		Controls:   append([]engine.Control(nil), s.extraCtrls...),
	}
	if !s.resultCode.IsSuccess() && s.resultCode != protocol.NoSuchObject {
		return msg
	}

	size, cookie, paged := decodePageRequest(p.Controls)
	if !paged {
		msg.Entries = append([]engine.RawEntry(nil), s.directory...)
		return msg
	}

	offset := 0
	if len(cookie) > 0 {
		offset, _ = strconv.Atoi(string(cookie))
	}
	end := offset + size
	if end > len(s.directory) {
		end = len(s.directory)
	}
	if offset < len(s.directory) {
		msg.Entries = append([]engine.RawEntry(nil), s.directory[offset:end]...)
	}

	next := ""
	if end < len(s.directory) {
		next = strconv.Itoa(end)
	}
	msg.Controls = append(msg.Controls, engine.Control{
		OID:   protocol.PagedResultsOID,
		Value: []byte(next),
	})
	return msg
}

// Poll implements engine.Session.
func (s *Session) Poll(ctx context.Context, msgid int, blocking bool) (*engine.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "poll")
	if s.pollErr != nil {
		return nil, s.pollErr
	}

	queue := s.queues[msgid]
	if len(queue) == 0 {
		// Nothing delivered yet: neutral for both poll modes.
		return nil, nil
	}
	msg := queue[0]
	s.queues[msgid] = queue[1:]
	return msg, nil
}

// BuildPagingControl implements engine.Session. The mock encodes the page
// size and cookie into the control value with a separator it decodes again
// on submission; real engines BER-encode the same pair.
func (s *Session) BuildPagingControl(pageSize int, cookie []byte) (engine.Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controlErr != nil {
		return engine.Control{}, s.controlErr
	}
	value := strconv.Itoa(pageSize) + "|" + string(cookie)
	return engine.Control{OID: protocol.PagedResultsOID, Value: []byte(value)}, nil
}

// BuildSortControl implements engine.Session.
func (s *Session) BuildSortControl(keys []engine.SortKey) (engine.Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controlErr != nil {
		return engine.Control{}, s.controlErr
	}
	attrs := make([]string, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, k.Attribute)
	}
	return engine.Control{OID: protocol.SortRequestOID, Value: []byte(strings.Join(attrs, ","))}, nil
}

// decodePageRequest recovers the page size and cookie from a request
// control list built by BuildPagingControl.
func decodePageRequest(ctrls []engine.Control) (size int, cookie []byte, ok bool) {
	for _, c := range ctrls {
		if c.OID != protocol.PagedResultsOID {
			continue
		}
		value := string(c.Value)
		sep := strings.Index(value, "|")
		if sep < 0 {
			return 0, nil, false
		}
		size, err := strconv.Atoi(value[:sep])
		if err != nil {
			return 0, nil, false
		}
		return size, []byte(value[sep+1:]), true
	}
	return 0, nil, false
}

// Abandon implements engine.Session.
func (s *Session) Abandon(msgid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "abandon")
	s.abandoned = append(s.abandoned, msgid)
	if s.abandonErr != nil {
		return s.abandonErr
	}
	delete(s.queues, msgid)
	return nil
}

// Unbind implements engine.Session.
func (s *Session) Unbind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "unbind")
	if s.unbindErr != nil {
		return s.unbindErr
	}
	s.unbound = true
	return nil
}

// WhoAmI implements engine.Session.
func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "whoami")
	if s.whoAmIErr != nil {
		return "", s.whoAmIErr
	}
	return s.whoAmIResp, nil
}

// Delete implements engine.Session.
func (s *Session) Delete(ctx context.Context, dn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, dn)
	return nil
}

// Add implements engine.Session.
func (s *Session) Add(ctx context.Context, dn string, attrs map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "add")
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, dn)
	return nil
}
