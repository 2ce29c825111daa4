// Package mapper materializes decoded directory entries into the driver's
// entry type and handles attribute value coercion.
package mapper

import (
	"context"
	"sort"
	"strconv"

	"github.com/ldapdrv/ldapdrv/engine"
)

// ConnectionRef is the minimal view of the owning connection an Entry
// keeps, so materialized entries can be removed through the connection that
// produced them.
type ConnectionRef interface {
	Delete(ctx context.Context, dn string) error
}

// Entry is one directory entry: a distinguished name plus an attribute
// multimap.
type Entry struct {
	dn    string
	attrs map[string][]string
	conn  ConnectionRef
}

// NewEntry creates an entry with the given DN, not yet bound to a
// connection.
func NewEntry(dn string) *Entry {
	return &Entry{dn: dn, attrs: make(map[string][]string)}
}

// DN returns the entry's distinguished name.
func (e *Entry) DN() string {
	return e.dn
}

// SetAttribute replaces all values of an attribute.
func (e *Entry) SetAttribute(name string, values ...string) {
	e.attrs[name] = append([]string(nil), values...)
}

// Values returns all values of an attribute.
func (e *Entry) Values(name string) []string {
	return append([]string(nil), e.attrs[name]...)
}

// First returns the first value of an attribute, or "" if absent.
func (e *Entry) First(name string) string {
	if vals := e.attrs[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Int returns the first value of an attribute coerced to an integer.
func (e *Entry) Int(name string) (int64, error) {
	return strconv.ParseInt(e.First(name), 10, 64)
}

// Has reports whether the entry carries the attribute.
func (e *Entry) Has(name string) bool {
	return len(e.attrs[name]) > 0
}

// AttributeNames returns the entry's attribute names in sorted order.
func (e *Entry) AttributeNames() []string {
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attributes returns a copy of the attribute multimap.
func (e *Entry) Attributes() map[string][]string {
	out := make(map[string][]string, len(e.attrs))
	for name, vals := range e.attrs {
		out[name] = append([]string(nil), vals...)
	}
	return out
}

// SetConnection binds the entry to the connection that produced it.
func (e *Entry) SetConnection(conn ConnectionRef) {
	e.conn = conn
}

// Connection returns the entry's owning connection, or nil.
func (e *Entry) Connection() ConnectionRef {
	return e.conn
}

// Remove deletes the entry from the directory through its owning
// connection.
func (e *Entry) Remove(ctx context.Context) error {
	if e.conn == nil {
		return ErrNoConnection
	}
	return e.conn.Delete(ctx, e.dn)
}

// Materializer converts raw decoded entries delivered by the engine into
// Entry values.
type Materializer struct{}

// NewMaterializer creates a new materializer.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// Materialize builds an Entry from a raw entry, bound to conn.
func (m *Materializer) Materialize(raw engine.RawEntry, conn ConnectionRef) *Entry {
	e := NewEntry(raw.DN)
	for name, vals := range raw.Attributes {
		e.attrs[name] = append([]string(nil), vals...)
	}
	e.conn = conn
	return e
}
