// Package engine defines the directory protocol engine abstraction for the
// LDAP driver. An Engine owns wire encoding, decoding and network I/O; the
// client packages drive it through small integer message ids and never touch
// the wire themselves.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ldapdrv/ldapdrv/protocol"
)

// CertPolicy controls how the engine validates the server certificate when
// a TLS session is established.
type CertPolicy int

const (
	CertNever CertPolicy = iota
	CertHard
	CertDemand
	CertAllow
	CertTry
)

// SortKey describes one attribute in a server side sort specification.
type SortKey struct {
	// Attribute is the attribute type to order by.
	Attribute string

	// MatchingRule is an optional ordering rule OID. Empty means the
	// attribute's default ordering rule.
	MatchingRule string

	// Reverse requests descending order.
	Reverse bool
}

// Control is a server control attached to a request or carried on a
// response. Value holds the control payload already decoded by the engine;
// for a paged results response control it is the raw continuation cookie.
type Control struct {
	OID         string
	Value       []byte
	Criticality bool
}

// MessageKind classifies a message delivered by Poll.
type MessageKind int

const (
	// KindSearchEntry is a standalone, non-bundled search entry. It is not
	// delivered in the default all-messages poll mode, where entries arrive
	// bundled with the terminating KindSearchResult message.
	KindSearchEntry MessageKind = iota

	// KindSearchResult terminates a search and carries the bundled entries,
	// final result code and response controls.
	KindSearchResult

	// KindExtended is an extended operation response.
	KindExtended

	// KindResultDone terminates any other operation class (add, delete,
	// bind and friends).
	KindResultDone
)

// String returns a short name for the message kind.
func (k MessageKind) String() string {
	switch k {
	case KindSearchEntry:
		return "SEARCH_ENTRY"
	case KindSearchResult:
		return "SEARCH_RESULT"
	case KindExtended:
		return "EXTENDED"
	case KindResultDone:
		return "RESULT_DONE"
	default:
		return "UNKNOWN"
	}
}

// RawEntry is one decoded directory entry, before materialization into the
// driver's entry type.
type RawEntry struct {
	DN         string
	Attributes map[string][]string
}

// Message is one decoded protocol message delivered by Poll.
type Message struct {
	Kind       MessageKind
	Entries    []RawEntry
	ResultCode protocol.ResultCode
	Diagnostic string
	Controls   []Control
}

// SearchParams carries everything the engine needs to issue one search
// round trip.
type SearchParams struct {
	Base      string
	Scope     protocol.Scope
	Filter    string
	Attrs     []string
	AttrsOnly bool
	Timeout   time.Duration
	SizeLimit int
	Controls  []Control
}

// Error is a failure reported by the engine together with the native LDAP
// result code it observed.
type Error struct {
	Code    protocol.ResultCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("engine: %s (%d): %s", e.Code, int(e.Code), e.Message)
	}
	return fmt.Sprintf("engine: %s (%d)", e.Code, int(e.Code))
}

// Engine creates protocol sessions against a directory server.
type Engine interface {
	// InitSession resolves the server URL and prepares a session handle.
	// No network traffic beyond name resolution is implied.
	InitSession(ctx context.Context, url string, policy CertPolicy) (Session, error)
}

// Session is one logical protocol session. A Session is not safe for
// unsynchronized concurrent use; the client drives it from a single logical
// caller at a time.
type Session interface {
	// StartTLS upgrades the session to TLS. Must precede Bind.
	StartTLS(ctx context.Context) error

	// Bind authenticates the session. Mechanism "SIMPLE" interprets user as
	// the bind DN; any other mechanism is SASL and interprets user as the
	// authentication id with optional realm and authorization id.
	Bind(ctx context.Context, mechanism, user, password, realm, authzID string) error

	// SearchSubmit issues a search operation and returns the message id of
	// the outstanding exchange.
	SearchSubmit(ctx context.Context, p SearchParams) (int, error)

	// Poll retrieves the next message for msgid. In blocking mode it
	// suspends until the engine delivers a message or the deadline the
	// engine applies elapses; in non-blocking mode it returns immediately.
	// A nil message with a nil error means nothing is available yet.
	Poll(ctx context.Context, msgid int, blocking bool) (*Message, error)

	// BuildPagingControl builds a paged results request control carrying
	// the page size and continuation cookie.
	BuildPagingControl(pageSize int, cookie []byte) (Control, error)

	// BuildSortControl builds a server side sort request control.
	BuildSortControl(keys []SortKey) (Control, error)

	// Abandon notifies the server that the operation identified by msgid is
	// no longer wanted. Best effort; no acknowledgement is guaranteed.
	Abandon(msgid int) error

	// Unbind terminates the session.
	Unbind() error

	// WhoAmI performs the LDAPv3 Who Am I extended operation.
	WhoAmI(ctx context.Context) (string, error)

	// Delete removes the entry with the given distinguished name.
	Delete(ctx context.Context, dn string) error

	// Add creates a new entry with the given distinguished name and
	// attributes.
	Add(ctx context.Context, dn string, attrs map[string][]string) error
}
