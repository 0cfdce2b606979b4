package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgentry/go-netrc/netrc"
)

// NetrcProvider reads credentials from a netrc-format secrets file, one
// (machine, login, password) entry per machine
type NetrcProvider struct {
	path string
}

// NewNetrcProvider creates a Provider reading the given secrets file.
// An empty path defaults to ~/.netrc.
func NewNetrcProvider(path string) *NetrcProvider {
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".netrc")
		}
	}
	return &NetrcProvider{path: path}
}

// Name implements Provider
func (p *NetrcProvider) Name() string {
	return "netrc (" + p.path + ")"
}

// Resolve implements Provider
func (p *NetrcProvider) Resolve(ctx context.Context, machine string) (Credential, error) {
	n, err := netrc.ParseFile(p.path)
	if err != nil {
		return Credential{}, fmt.Errorf("NetrcProvider.ParseFile: %w", err)
	}
	m := n.FindMachine(machine)
	if m == nil || m.IsDefault() {
		return Credential{}, fmt.Errorf("NetrcProvider: no entry for machine %s", machine)
	}
	if m.Login == "" || m.Password == "" {
		return Credential{}, fmt.Errorf("NetrcProvider: malformed entry for machine %s", machine)
	}
	return Credential{Login: m.Login, Password: m.Password}, nil
}
