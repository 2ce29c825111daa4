package mapper

import "errors"

// ErrNoConnection is returned when an entry operation needs a connection
// but the entry is not bound to one.
var ErrNoConnection = errors.New("entry is not bound to a connection")
