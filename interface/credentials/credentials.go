// Package credentials resolves the login/password pair used to authenticate
// against the catalog login service. Resolution is a capability: callers pick
// the providers matching their execution context (batch jobs must not block
// on a console prompt).
package credentials

import (
	"context"
	"fmt"

	"github.com/oceanwatch/granule-fetcher/service/log"
)

// Credential is a username/password pair. It lives in process memory only and
// is never persisted by this package (the netrc file and the OS keyring are
// owned by the user).
type Credential struct {
	Login    string
	Password string
}

// ErrCredentialUnavailable is returned when no provider can resolve a
// credential for the requested machine. Callers surface it to the operator,
// they do not retry.
type ErrCredentialUnavailable struct {
	Machine string
	Reason  string
}

func (e ErrCredentialUnavailable) Error() string {
	return fmt.Sprintf("no credential available for %s: %s", e.Machine, e.Reason)
}

// Provider resolves a credential for a machine (the login endpoint host)
type Provider interface {
	// Resolve returns the credential for the given machine.
	Resolve(ctx context.Context, machine string) (Credential, error)

	// Name of the provider
	Name() string
}

// Chain tries each provider in order and returns the first credential found
type Chain []Provider

// Name implements Provider
func (c Chain) Name() string { return "chain" }

// Resolve implements Provider
func (c Chain) Resolve(ctx context.Context, machine string) (Credential, error) {
	if len(c) == 0 {
		return Credential{}, ErrCredentialUnavailable{Machine: machine, Reason: "no credential provider configured"}
	}
	for _, p := range c {
		cred, err := p.Resolve(ctx, machine)
		if err == nil {
			return cred, nil
		}
		log.Logger(ctx).Sugar().Debugf("credentials: %s: %v", p.Name(), err)
	}
	return Credential{}, ErrCredentialUnavailable{Machine: machine, Reason: "all providers exhausted"}
}
