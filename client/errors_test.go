package client

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ldapdrv/ldapdrv/protocol"
)

func TestErrorFormatting(t *testing.T) {
	err := &ConnectionError{
		Code:    "E_CONNECT",
		Type:    "CONNECTION_ERROR",
		Message: "failed to initialize session",
		Details: map[string]interface{}{"url": "ldap://ldap.example.com:389"},
		Cause:   errors.New("connection refused"),
	}

	plain := err.Error()
	if !strings.HasPrefix(plain, "E_CONNECT: failed to initialize session") {
		t.Errorf("plain format: %q", plain)
	}
	if !strings.Contains(plain, "connection refused") {
		t.Errorf("plain format must mention the cause: %q", plain)
	}

	debug := err.FormatError(true)
	var doc map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(debug), &doc); jsonErr != nil {
		t.Fatalf("debug format is not JSON: %v\n%s", jsonErr, debug)
	}
	if doc["code"] != "E_CONNECT" {
		t.Errorf("debug code = %v", doc["code"])
	}
	if _, ok := doc["details"]; !ok {
		t.Errorf("debug format must carry the detail map")
	}
}

func TestDirectoryErrorCarriesResultCode(t *testing.T) {
	cause := errors.New("engine detail")
	err := directoryError(protocol.InvalidCredentials, cause)

	if err.ResultCode != protocol.InvalidCredentials {
		t.Errorf("ResultCode = %v", err.ResultCode)
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("message must carry the code description: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause must be reachable through Unwrap")
	}
}

func TestErrInvalidState(t *testing.T) {
	err := ErrInvalidState("Search", CONNECTED, DISCONNECTED)

	if err.Code != "E_INVALID_STATE" {
		t.Errorf("code = %q", err.Code)
	}
	if err.Details["operation"] != "Search" {
		t.Errorf("operation detail = %v", err.Details["operation"])
	}
	if err.Details["required"] != "CONNECTED" || err.Details["actual"] != "DISCONNECTED" {
		t.Errorf("state details = %v", err.Details)
	}
}

func TestProtocolErrorDetails(t *testing.T) {
	err := newProtocolError("E_UNKNOWN_MSGID", "no pending operation for message id",
		map[string]interface{}{"msgid": 7})

	if err.Type != "PROTOCOL_ERROR" {
		t.Errorf("type = %q", err.Type)
	}
	if err.Details["msgid"] != 7 {
		t.Errorf("msgid detail = %v", err.Details["msgid"])
	}
}
