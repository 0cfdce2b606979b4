package credentials

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used in the OS keyring.
const KeyringService = "granule-fetcher"

// KeyringProvider reads credentials from the OS keyring. Entries are stored
// under KeyringService as "<machine>/login" and "<machine>/password".
type KeyringProvider struct{}

// NewKeyringProvider creates a new KeyringProvider
func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{}
}

// Name implements Provider
func (p *KeyringProvider) Name() string {
	return "keyring"
}

// Resolve implements Provider
func (p *KeyringProvider) Resolve(ctx context.Context, machine string) (Credential, error) {
	login, err := keyring.Get(KeyringService, machine+"/login")
	if err != nil {
		return Credential{}, fmt.Errorf("KeyringProvider: %w", err)
	}
	password, err := keyring.Get(KeyringService, machine+"/password")
	if err != nil {
		return Credential{}, fmt.Errorf("KeyringProvider: %w", err)
	}
	return Credential{Login: login, Password: password}, nil
}

// Store saves a credential to the OS keyring for later resolution
func (p *KeyringProvider) Store(machine string, cred Credential) error {
	if err := keyring.Set(KeyringService, machine+"/login", cred.Login); err != nil {
		return fmt.Errorf("KeyringProvider.Store: %w", err)
	}
	if err := keyring.Set(KeyringService, machine+"/password", cred.Password); err != nil {
		// do not leave a half-written entry
		_ = keyring.Delete(KeyringService, machine+"/login")
		return fmt.Errorf("KeyringProvider.Store: %w", err)
	}
	return nil
}

// Delete removes the credential of the given machine from the OS keyring
func (p *KeyringProvider) Delete(machine string) error {
	_ = keyring.Delete(KeyringService, machine+"/login")
	_ = keyring.Delete(KeyringService, machine+"/password")
	return nil
}
