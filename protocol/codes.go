// Package protocol provides LDAP result codes, search scopes and control
// identifiers shared between the client and the directory engine.
package protocol

import "fmt"

// ResultCode is a numeric LDAP result code as defined by RFC 4511.
type ResultCode int

const (
	Success                ResultCode = 0
	OperationsError        ResultCode = 1
	ProtocolViolation      ResultCode = 2
	TimeLimitExceeded      ResultCode = 3
	SizeLimitExceeded      ResultCode = 4
	CompareFalse           ResultCode = 5
	CompareTrue            ResultCode = 6
	AuthMethodNotSupported ResultCode = 7
	StrongerAuthRequired   ResultCode = 8
	PartialResults         ResultCode = 9
	Referral               ResultCode = 10
	AdminLimitExceeded     ResultCode = 11
	ConfidentialityRequired ResultCode = 13
	SaslBindInProgress     ResultCode = 14
	NoSuchAttribute        ResultCode = 16
	UndefinedAttributeType ResultCode = 17
	InappropriateMatching  ResultCode = 18
	ConstraintViolation    ResultCode = 19
	AttributeOrValueExists ResultCode = 20
	InvalidAttributeSyntax ResultCode = 21
	NoSuchObject           ResultCode = 32
	AliasProblem           ResultCode = 33
	InvalidDNSyntax        ResultCode = 34
	InappropriateAuth      ResultCode = 48
	InvalidCredentials     ResultCode = 49
	InsufficientAccess     ResultCode = 50
	Busy                   ResultCode = 51
	Unavailable            ResultCode = 52
	UnwillingToPerform     ResultCode = 53
	LoopDetect             ResultCode = 54
	NamingViolation        ResultCode = 64
	ObjectClassViolation   ResultCode = 65
	NotAllowedOnNonLeaf    ResultCode = 66
	NotAllowedOnRDN        ResultCode = 67
	EntryAlreadyExists     ResultCode = 68
	AffectsMultipleDSAs    ResultCode = 71
	Other                  ResultCode = 80
)

var codeNames = map[ResultCode]string{
	Success:                 "success",
	OperationsError:         "operations error",
	ProtocolViolation:       "protocol error",
	TimeLimitExceeded:       "time limit exceeded",
	SizeLimitExceeded:       "size limit exceeded",
	CompareFalse:            "compare false",
	CompareTrue:             "compare true",
	AuthMethodNotSupported:  "authentication method not supported",
	StrongerAuthRequired:    "stronger authentication required",
	PartialResults:          "partial results and referral received",
	Referral:                "referral",
	AdminLimitExceeded:      "administrative limit exceeded",
	ConfidentialityRequired: "confidentiality required",
	SaslBindInProgress:      "SASL bind in progress",
	NoSuchAttribute:         "no such attribute",
	UndefinedAttributeType:  "undefined attribute type",
	InappropriateMatching:   "inappropriate matching",
	ConstraintViolation:     "constraint violation",
	AttributeOrValueExists:  "attribute or value exists",
	InvalidAttributeSyntax:  "invalid attribute syntax",
	NoSuchObject:            "no such object",
	AliasProblem:            "alias problem",
	InvalidDNSyntax:         "invalid DN syntax",
	InappropriateAuth:       "inappropriate authentication",
	InvalidCredentials:      "invalid credentials",
	InsufficientAccess:      "insufficient access rights",
	Busy:                    "server is busy",
	Unavailable:             "server is unavailable",
	UnwillingToPerform:      "server is unwilling to perform",
	LoopDetect:              "loop detected",
	NamingViolation:         "naming violation",
	ObjectClassViolation:    "object class violation",
	NotAllowedOnNonLeaf:     "operation not allowed on non-leaf",
	NotAllowedOnRDN:         "operation not allowed on RDN",
	EntryAlreadyExists:      "entry already exists",
	AffectsMultipleDSAs:     "operation affects multiple DSAs",
	Other:                   "other error",
}

// String returns the RFC 4511 description for the code, or a numeric
// fallback for codes without a registered name.
func (c ResultCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown result code (%d)", int(c))
}

// IsSuccess reports whether the code terminates a search without error.
// PartialResults is delivered by servers that chase referrals partially and
// is treated as success.
func (c ResultCode) IsSuccess() bool {
	return c == Success || c == PartialResults
}

// Scope is an LDAP search scope.
type Scope int

const (
	// ScopeUnspecified marks a request that relies on the connection's
	// configured default scope.
	ScopeUnspecified Scope = -1
	ScopeBaseObject  Scope = 0
	ScopeSingleLevel Scope = 1
	ScopeWholeSubtree Scope = 2
)

// String returns the LDAP URL token for the scope.
func (s Scope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	case ScopeUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("invalid scope (%d)", int(s))
	}
}

// Valid reports whether the scope is one of the three concrete LDAP scopes.
func (s Scope) Valid() bool {
	return s == ScopeBaseObject || s == ScopeSingleLevel || s == ScopeWholeSubtree
}

// Control OIDs used by the driver.
const (
	// PagedResultsOID identifies the simple paged results control (RFC 2696).
	PagedResultsOID = "1.2.840.113556.1.4.319"

	// SortRequestOID identifies the server side sorting request control
	// (RFC 2891).
	SortRequestOID = "1.2.840.113556.1.4.473"

	// SortResponseOID identifies the server side sorting response control.
	SortResponseOID = "1.2.840.113556.1.4.474"
)
