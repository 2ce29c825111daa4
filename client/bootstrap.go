package client

import (
	"context"
	"errors"

	"github.com/ldapdrv/ldapdrv/engine"
)

// BootstrapConfig is the immutable configuration the bootstrapper works
// from, captured once from the client options at connection creation.
type BootstrapConfig struct {
	URL         string
	CertPolicy  engine.CertPolicy
	UseTLS      bool
	Mechanism   string
	Credentials Credentials
}

func newBootstrapConfig(opts ClientOptions) BootstrapConfig {
	return BootstrapConfig{
		URL:         opts.URL,
		CertPolicy:  opts.CertPolicy,
		UseTLS:      opts.UseTLS,
		Mechanism:   opts.Mechanism,
		Credentials: opts.Credentials,
	}
}

// bootstrapper establishes a bound protocol session in three strictly
// ordered stages: initialize the session, upgrade to TLS when requested,
// bind. Each stage makes a single attempt; the first failure surfaces
// immediately.
type bootstrapper struct {
	eng    engine.Engine
	cfg    BootstrapConfig
	logger Logger
}

func newBootstrapper(eng engine.Engine, cfg BootstrapConfig, logger Logger) *bootstrapper {
	return &bootstrapper{eng: eng, cfg: cfg, logger: logger}
}

// run performs the bootstrap sequence and returns the bound session.
func (b *bootstrapper) run(ctx context.Context) (engine.Session, error) {
	// Credential shape problems are caller errors and must fail before
	// any network traffic.
	if err := validateCredentials(b.cfg.Mechanism, b.cfg.Credentials); err != nil {
		return nil, err
	}
	if b.cfg.URL == "" {
		return nil, newParameterError("server URL must not be empty", nil)
	}

	sess, err := b.eng.InitSession(ctx, b.cfg.URL, b.cfg.CertPolicy)
	if err != nil {
		return nil, &ConnectionError{
			Code:    "E_CONNECT",
			Type:    "CONNECTION_ERROR",
			Message: "failed to initialize protocol session",
			Details: map[string]interface{}{"url": b.cfg.URL},
			Cause:   err,
		}
	}
	b.logger.Debug("session initialized", String("url", b.cfg.URL))

	// The TLS upgrade always precedes bind.
	if b.cfg.UseTLS {
		if err := sess.StartTLS(ctx); err != nil {
			return nil, &TLSError{
				Code:    "E_STARTTLS",
				Type:    "TLS_ERROR",
				Message: "StartTLS upgrade failed",
				Cause:   err,
			}
		}
		b.logger.Debug("TLS upgrade complete")
	}

	user, password, realm, authzID := bindArguments(b.cfg.Mechanism, b.cfg.Credentials)
	if err := sess.Bind(ctx, b.cfg.Mechanism, user, password, realm, authzID); err != nil {
		var engErr *engine.Error
		details := map[string]interface{}{"mechanism": b.cfg.Mechanism}
		if errors.As(err, &engErr) {
			details["resultCode"] = int(engErr.Code)
		}
		return nil, &AuthError{
			Code:    "E_BIND",
			Type:    "AUTH_ERROR",
			Message: "bind failed",
			Details: details,
			Cause:   err,
		}
	}
	b.logger.Debug("bind complete", String("mechanism", b.cfg.Mechanism))

	return sess, nil
}

// validateCredentials checks the credential shape the mechanism requires.
// SIMPLE needs both bind DN and password; SASL needs both authentication
// id and password, with realm and authorization id optional. A fully empty
// shape is an anonymous bind and is always valid.
func validateCredentials(mechanism string, creds Credentials) error {
	if creds.Anonymous() {
		return nil
	}
	if creds.hasUser != creds.hasPassword {
		if mechanism == MechanismSimple {
			return newParameterError(
				"simple bind requires both bind DN and password",
				map[string]interface{}{"mechanism": mechanism})
		}
		return newParameterError(
			"SASL bind requires both authentication id and password",
			map[string]interface{}{"mechanism": mechanism})
	}
	return nil
}

// bindArguments maps the credential shape onto the engine's bind call. For
// SIMPLE the user is the bind DN and realm/authzid stay empty; for SASL
// the user is the authentication id and the authorization id defaults to
// the empty string.
func bindArguments(mechanism string, creds Credentials) (user, password, realm, authzID string) {
	if mechanism == MechanismSimple {
		return creds.user, creds.password, "", ""
	}
	return creds.user, creds.password, creds.realm, creds.authzID
}
