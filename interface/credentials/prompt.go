package credentials

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptProvider asks for the credential on the console, masking the
// password. It refuses to run when stdin is not a terminal so that batch
// contexts fail with ErrCredentialUnavailable instead of hanging.
type PromptProvider struct {
	in  *os.File
	out *os.File
}

// NewPromptProvider creates an interactive Provider on stdin/stderr
func NewPromptProvider() *PromptProvider {
	return &PromptProvider{in: os.Stdin, out: os.Stderr}
}

// Name implements Provider
func (p *PromptProvider) Name() string {
	return "prompt"
}

// Resolve implements Provider
func (p *PromptProvider) Resolve(ctx context.Context, machine string) (Credential, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return Credential{}, ErrCredentialUnavailable{Machine: machine, Reason: "interactive prompt disallowed (stdin is not a terminal)"}
	}

	fmt.Fprintf(p.out, "username for %s: ", machine)
	login, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil {
		return Credential{}, fmt.Errorf("PromptProvider: %w", err)
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return Credential{}, fmt.Errorf("PromptProvider: empty username")
	}

	fmt.Fprintf(p.out, "password for %s@%s: ", login, machine)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return Credential{}, fmt.Errorf("PromptProvider: %w", err)
	}
	return Credential{Login: login, Password: string(password)}, nil
}
