package client

import (
	"strings"
	"time"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/protocol"
)

// MechanismSimple is the plaintext simple bind mechanism. Any other
// mechanism name is negotiated as SASL.
const MechanismSimple = "SIMPLE"

// Credentials carries bind credentials. Use the constructors; the zero
// value binds anonymously.
type Credentials struct {
	user     string
	password string
	realm    string
	authzID  string

	hasUser     bool
	hasPassword bool
}

// SimpleCredentials builds credentials for a simple bind.
func SimpleCredentials(bindDN, password string) Credentials {
	return Credentials{user: bindDN, password: password, hasUser: true, hasPassword: true}
}

// SASLCredentials builds credentials for a SASL bind.
func SASLCredentials(authcID, password string) Credentials {
	return Credentials{user: authcID, password: password, hasUser: true, hasPassword: true}
}

// BindDNOnly builds a partial credential shape carrying only the bind DN.
// Binding with it fails with a ParameterError; it exists so hosts that
// collect the DN and password separately can represent the intermediate
// state.
func BindDNOnly(bindDN string) Credentials {
	return Credentials{user: bindDN, hasUser: true}
}

// WithRealm returns a copy of the credentials with a SASL realm.
func (c Credentials) WithRealm(realm string) Credentials {
	c.realm = realm
	return c
}

// WithAuthzID returns a copy of the credentials with a SASL authorization
// identity.
func (c Credentials) WithAuthzID(authzID string) Credentials {
	c.authzID = authzID
	return c
}

// Anonymous reports whether the credentials request an anonymous bind.
func (c Credentials) Anonymous() bool {
	return !c.hasUser && !c.hasPassword
}

// ClientOptions configures the LDAP connection.
type ClientOptions struct {
	// URL is the directory server URL, e.g. "ldap://ldap.example.com:389".
	URL string

	// CertPolicy controls server certificate validation for TLS sessions.
	// Default: CertHard
	CertPolicy engine.CertPolicy

	// UseTLS requests a StartTLS upgrade after session initialization,
	// strictly before bind.
	// Default: false
	UseTLS bool

	// Mechanism is the bind mechanism. "SIMPLE" is a plaintext simple
	// bind; any other name is a SASL mechanism.
	// Default: "SIMPLE"
	Mechanism string

	// Credentials are the bind credentials. The zero value binds
	// anonymously.
	Credentials Credentials

	// Async makes Search return only the message id; result discovery is
	// deferred to explicit GetResult polling, which then never blocks.
	// Default: false
	Async bool

	// PageSize requests server side paging with the given page size.
	// 0 and 1 disable paging.
	// Default: 0
	PageSize int

	// SortSpec requests server side sorting by the given attribute list.
	// Empty disables sorting. Paging and sorting combine freely.
	SortSpec []engine.SortKey

	// DefaultBase is the search base used when a request leaves it unset.
	DefaultBase string

	// DefaultScope is the search scope used when a request leaves it
	// unset. A request resolving to ScopeUnspecified is a parameter error.
	// Default: ScopeUnspecified
	DefaultScope protocol.Scope

	// DefaultFilter is the search filter used when a request leaves it
	// unset.
	// Default: "(objectClass=*)"
	DefaultFilter string

	// DefaultTimeout is the per-search timeout handed to the engine when a
	// request leaves it unset. Enforcement is delegated to the
	// engine/server. Zero means no limit.
	DefaultTimeout time.Duration

	// CookieExtractor overrides how continuation cookies are read from
	// paged results response controls. Nil selects the default extractor.
	CookieExtractor engine.CookieExtractor

	// Logger is the logger implementation to use. If nil, a default
	// logger is used.
	Logger Logger

	// LogLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR).
	// Default: "INFO"
	LogLevel string

	// DebugMode enables verbose error serialization and raw message
	// logging.
	// Default: false
	DebugMode bool

	// OnConnected is called when the session is established and bound.
	OnConnected func(StateTransition)

	// OnDisconnected is called when the session is terminated.
	OnDisconnected func(StateTransition)
}

// DefaultOptions returns ClientOptions with default values.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		CertPolicy:    engine.CertHard,
		Mechanism:     MechanismSimple,
		DefaultScope:  protocol.ScopeUnspecified,
		DefaultFilter: "(objectClass=*)",
		LogLevel:      "INFO",
	}
}

// normalized returns a copy with mechanism casing and empty fields
// resolved against defaults.
func (o ClientOptions) normalized() ClientOptions {
	if o.Mechanism == "" {
		o.Mechanism = MechanismSimple
	}
	o.Mechanism = strings.ToUpper(o.Mechanism)
	if o.DefaultFilter == "" {
		o.DefaultFilter = "(objectClass=*)"
	}
	if o.LogLevel == "" {
		o.LogLevel = "INFO"
	}
	return o
}
