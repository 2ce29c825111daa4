package client

import (
	"encoding/json"
	"fmt"

	"github.com/ldapdrv/ldapdrv/protocol"
)

// formatError renders the shared Code/Type/Message/Details/Cause shape.
// With debug=false it produces a single "CODE: message" line; with
// debug=true a JSON document with the full detail map and cause chain.
func formatError(debug bool, code, typ, message string, details map[string]interface{}, cause error) string {
	if !debug {
		if cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", code, message, cause.Error())
		}
		return fmt.Sprintf("%s: %s", code, message)
	}

	data := map[string]interface{}{
		"code":    code,
		"type":    typ,
		"message": message,
	}
	if len(details) > 0 {
		data["details"] = details
	}
	if cause != nil {
		data["cause"] = map[string]interface{}{"message": cause.Error()}
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

// ConnectionError represents a failure to initialize the protocol session.
type ConnectionError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// FormatError formats the error based on debug mode.
func (e *ConnectionError) FormatError(debugMode bool) string {
	return formatError(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error { return e.Cause }

// TLSError represents a failed StartTLS upgrade.
type TLSError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *TLSError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// FormatError formats the error based on debug mode.
func (e *TLSError) FormatError(debugMode bool) string {
	return formatError(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TLSError) Unwrap() error { return e.Cause }

// AuthError represents a failed bind.
type AuthError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// FormatError formats the error based on debug mode.
func (e *AuthError) FormatError(debugMode bool) string {
	return formatError(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error { return e.Cause }

// ProtocolError represents corrupted driver bookkeeping: duplicate message
// ids, unknown message ids, failed control construction. Always fatal,
// never retried.
type ProtocolError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// FormatError formats the error based on debug mode.
func (e *ProtocolError) FormatError(debugMode bool) string {
	return formatError(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ProtocolError) Unwrap() error { return e.Cause }

// DirectoryError wraps a non-success result code reported by the directory
// server or the protocol engine.
type DirectoryError struct {
	ResultCode protocol.ResultCode    `json:"resultCode"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *DirectoryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ResultCode.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("DIRECTORY_ERROR(%d): %s (caused by: %s)", int(e.ResultCode), msg, e.Cause.Error())
	}
	return fmt.Sprintf("DIRECTORY_ERROR(%d): %s", int(e.ResultCode), msg)
}

// Unwrap returns the underlying cause.
func (e *DirectoryError) Unwrap() error { return e.Cause }

// ParameterError represents invalid caller input detected before any engine
// call is made.
type ParameterError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, nil)
}

// StateError represents an operation attempted in the wrong connection
// state.
type StateError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return formatError(false, e.Code, e.Type, e.Message, e.Details, nil)
}

// ErrInvalidState builds a StateError for an operation that requires a
// specific connection state.
func ErrInvalidState(operation string, required, actual ConnectionState) *StateError {
	return &StateError{
		Code:    "E_INVALID_STATE",
		Type:    "STATE_ERROR",
		Message: fmt.Sprintf("%s requires state %s, current state is %s", operation, required, actual),
		Details: map[string]interface{}{
			"operation": operation,
			"required":  required.String(),
			"actual":    actual.String(),
		},
	}
}

func newParameterError(message string, details map[string]interface{}) *ParameterError {
	return &ParameterError{
		Code:    "E_INVALID_PARAMETER",
		Type:    "PARAMETER_ERROR",
		Message: message,
		Details: details,
	}
}

func newProtocolError(code, message string, details map[string]interface{}) *ProtocolError {
	return &ProtocolError{
		Code:    code,
		Type:    "PROTOCOL_ERROR",
		Message: message,
		Details: details,
	}
}

// directoryError maps a result code reported by the server or engine to a
// DirectoryError with the code's textual description.
func directoryError(code protocol.ResultCode, cause error) *DirectoryError {
	return &DirectoryError{
		ResultCode: code,
		Message:    code.String(),
		Cause:      cause,
	}
}
