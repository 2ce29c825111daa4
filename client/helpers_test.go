package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/engine/mock"
)

// testDirectory builds n raw entries in a stable order.
func testDirectory(n int) []engine.RawEntry {
	entries := make([]engine.RawEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, engine.RawEntry{
			DN: fmt.Sprintf("uid=user%d,dc=example,dc=com", i),
			Attributes: map[string][]string{
				"uid":         {fmt.Sprintf("user%d", i)},
				"objectClass": {"person"},
			},
		})
	}
	return entries
}

// newTestConnection builds a connected client over a mock engine. mutate
// may adjust the options before the connection is created.
func newTestConnection(t *testing.T, mutate func(*ClientOptions)) (*Connection, *mock.Session) {
	t.Helper()

	opts := DefaultOptions()
	opts.URL = "ldap://ldap.example.com:389"
	opts.Credentials = SimpleCredentials("cn=admin,dc=example,dc=com", "secret")
	opts.Logger = NewNoopLogger()
	if mutate != nil {
		mutate(&opts)
	}

	eng := mock.NewEngine()
	conn := NewConnection(eng, &opts)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return conn, eng.Session()
}
