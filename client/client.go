package client

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/mapper"
)

// Connection is an LDAP connection: one protocol session plus the
// correlation table of outstanding operations. A Connection is designed
// for a single logical driver; concurrent submit/poll calls against the
// same connection need external synchronization around the session.
type Connection struct {
	eng     engine.Engine
	session engine.Session
	opts    ClientOptions

	async    bool
	pageSize int
	sortSpec []engine.SortKey

	pending      *pendingOps
	stateMgr     *StateManager
	extractor    engine.CookieExtractor
	materializer *mapper.Materializer
	logger       Logger
	debugMode    atomic.Bool
}

// NewConnection creates a connection driving the given engine. If opts is
// nil, default options are used. The connection starts DISCONNECTED; call
// Connect to bootstrap it.
func NewConnection(eng engine.Engine, opts *ClientOptions) *Connection {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	normalized := opts.normalized()

	logger := normalized.Logger
	if logger == nil {
		logger = NewLogger(normalized.LogLevel, nil)
	}

	extractor := normalized.CookieExtractor
	if extractor == nil {
		extractor = engine.DefaultCookieExtractor()
	}

	c := &Connection{
		eng:          eng,
		opts:         normalized,
		async:        normalized.Async,
		pageSize:     normalized.PageSize,
		sortSpec:     append([]engine.SortKey(nil), normalized.SortSpec...),
		pending:      newPendingOps(),
		stateMgr:     NewStateManager(),
		extractor:    extractor,
		materializer: mapper.NewMaterializer(),
		logger:       logger,
	}
	c.debugMode.Store(normalized.DebugMode)

	if normalized.OnConnected != nil || normalized.OnDisconnected != nil {
		c.stateMgr.OnStateChange(func(transition StateTransition) {
			switch transition.To {
			case CONNECTED:
				if normalized.OnConnected != nil {
					normalized.OnConnected(transition)
				}
			case DISCONNECTED:
				if transition.From != DISCONNECTED && normalized.OnDisconnected != nil {
					normalized.OnDisconnected(transition)
				}
			}
		})
	}

	return c
}

// Connect bootstraps the connection: initialize the session, upgrade to
// TLS when requested, bind. Single attempt per stage, no retries.
func (c *Connection) Connect(ctx context.Context) error {
	c.logger.Info("connecting to directory", String("url", c.opts.URL), Bool("tls", c.opts.UseTLS))

	if err := c.stateMgr.TransitionTo(CONNECTING, nil, map[string]interface{}{
		"reason": "user_initiated",
		"url":    c.opts.URL,
	}); err != nil {
		return err
	}

	boot := newBootstrapper(c.eng, newBootstrapConfig(c.opts), c.logger)
	sess, err := boot.run(ctx)
	if err != nil {
		c.logger.Error("bootstrap failed", Error("error", err))
		c.stateMgr.TransitionTo(DISCONNECTED, err, map[string]interface{}{
			"reason": "error",
		})
		return err
	}

	c.session = sess
	c.stateMgr.TransitionTo(CONNECTED, nil, map[string]interface{}{
		"reason": "user_initiated",
		"url":    c.opts.URL,
	})
	c.logger.Info("connection established and bound",
		String("mechanism", c.opts.Mechanism),
		Int("page_size", c.pageSize),
		Int("sort_attrs", len(c.sortSpec)))
	return nil
}

// Close abandons every pending operation, unbinds and terminates the
// session. The first abandon failure aborts the close with that error;
// entries already removed from the table stay removed. Abandon is best
// effort and attempted once per operation.
func (c *Connection) Close(ctx context.Context) error {
	if c.stateMgr.GetState() != CONNECTED {
		return ErrInvalidState("Close", CONNECTED, c.stateMgr.GetState())
	}

	if err := c.stateMgr.TransitionTo(DISCONNECTING, nil, map[string]interface{}{
		"reason": "user_initiated",
	}); err != nil {
		return err
	}

	for _, msgid := range c.pending.msgids() {
		c.pending.remove(msgid)
		if err := c.session.Abandon(msgid); err != nil {
			c.logger.Error("abandon failed during close",
				Int("msgid", msgid), Error("error", err))
			c.stateMgr.TransitionTo(DISCONNECTED, err, map[string]interface{}{
				"reason": "error",
			})
			return mapEngineError(err)
		}
		c.logger.Debug("pending operation abandoned", Int("msgid", msgid))
	}

	var closeErr error
	if err := c.session.Unbind(); err != nil {
		c.logger.Error("unbind failed", Error("error", err))
		closeErr = mapEngineError(err)
	} else {
		c.logger.Info("disconnected")
	}

	c.stateMgr.TransitionTo(DISCONNECTED, closeErr, map[string]interface{}{
		"reason": "user_initiated",
	})
	return closeErr
}

// Add creates a new entry on the server.
func (c *Connection) Add(ctx context.Context, entry *mapper.Entry) error {
	if c.stateMgr.GetState() != CONNECTED {
		return ErrInvalidState("Add", CONNECTED, c.stateMgr.GetState())
	}
	if entry == nil || entry.DN() == "" {
		return newParameterError("entry with a non-empty DN required", nil)
	}

	entry.SetConnection(c)
	if err := c.session.Add(ctx, entry.DN(), entry.Attributes()); err != nil {
		return mapEngineError(err)
	}
	c.logger.Debug("entry added", String("dn", entry.DN()))
	return nil
}

// Delete removes the entry with the given distinguished name.
func (c *Connection) Delete(ctx context.Context, dn string) error {
	if c.stateMgr.GetState() != CONNECTED {
		return ErrInvalidState("Delete", CONNECTED, c.stateMgr.GetState())
	}
	if dn == "" {
		return newParameterError("distinguished name cannot be empty", nil)
	}

	if err := c.session.Delete(ctx, dn); err != nil {
		return mapEngineError(err)
	}
	c.logger.Debug("entry deleted", String("dn", dn))
	return nil
}

// WhoAmI performs the LDAPv3 Who Am I operation. An unbound or empty
// authorization identity is reported as "anonym".
func (c *Connection) WhoAmI(ctx context.Context) (string, error) {
	if c.stateMgr.GetState() != CONNECTED {
		return "", ErrInvalidState("WhoAmI", CONNECTED, c.stateMgr.GetState())
	}

	authzID, err := c.session.WhoAmI(ctx)
	if err != nil {
		return "", mapEngineError(err)
	}
	if authzID == "" {
		return "anonym", nil
	}
	return authzID, nil
}

// GetState returns the current connection state.
func (c *Connection) GetState() ConnectionState {
	return c.stateMgr.GetState()
}

// GetLastTransition returns the most recent state transition.
func (c *Connection) GetLastTransition() StateTransition {
	return c.stateMgr.GetLastTransition()
}

// OnStateChange registers a handler to be called on state transitions.
func (c *Connection) OnStateChange(handler StateChangeHandler) {
	c.stateMgr.OnStateChange(handler)
}

// Pending returns the number of outstanding operations.
func (c *Connection) Pending() int {
	return c.pending.size()
}

// EnableDebugMode enables verbose message logging and error serialization.
func (c *Connection) EnableDebugMode() {
	c.debugMode.Store(true)
	c.logger.Info("debug mode enabled")
}

// DisableDebugMode disables debug mode.
func (c *Connection) DisableDebugMode() {
	c.debugMode.Store(false)
	c.logger.Info("debug mode disabled")
}

// IsDebugMode returns whether debug mode is currently enabled.
func (c *Connection) IsDebugMode() bool {
	return c.debugMode.Load()
}

// GetVersion returns the build version of the driver.
func (c *Connection) GetVersion() string {
	return Version
}

// mapEngineError maps an engine failure to the driver's error taxonomy: a
// reported result code becomes a DirectoryError, anything else passes
// through unchanged.
func mapEngineError(err error) error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return directoryError(engErr.Code, err)
	}
	return err
}
