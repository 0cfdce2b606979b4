package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNetrc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netrc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNetrcResolve(t *testing.T) {
	path := writeNetrc(t, "machine urs.example.org login jane password s3cret\n")
	p := NewNetrcProvider(path)

	cred, err := p.Resolve(context.Background(), "urs.example.org")
	require.NoError(t, err)
	assert.Equal(t, "jane", cred.Login)
	assert.Equal(t, "s3cret", cred.Password)
}

func TestNetrcMissingMachine(t *testing.T) {
	path := writeNetrc(t, "machine other.example.org login jane password s3cret\n")
	p := NewNetrcProvider(path)

	_, err := p.Resolve(context.Background(), "urs.example.org")
	assert.Error(t, err)
}

func TestNetrcMissingFile(t *testing.T) {
	p := NewNetrcProvider(filepath.Join(t.TempDir(), "nope"))
	_, err := p.Resolve(context.Background(), "urs.example.org")
	assert.Error(t, err)
}

type staticProvider struct {
	cred Credential
	err  error
}

func (p staticProvider) Name() string { return "static" }
func (p staticProvider) Resolve(ctx context.Context, machine string) (Credential, error) {
	return p.cred, p.err
}

func TestChainFallsThrough(t *testing.T) {
	chain := Chain{
		staticProvider{err: ErrCredentialUnavailable{Machine: "m", Reason: "empty"}},
		staticProvider{cred: Credential{Login: "jane", Password: "pw"}},
	}
	cred, err := chain.Resolve(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, "jane", cred.Login)
}

func TestChainExhausted(t *testing.T) {
	chain := Chain{
		staticProvider{err: ErrCredentialUnavailable{Machine: "m", Reason: "empty"}},
	}
	_, err := chain.Resolve(context.Background(), "m")
	var unavailable ErrCredentialUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "m", unavailable.Machine)
}

func TestEmptyChain(t *testing.T) {
	_, err := Chain{}.Resolve(context.Background(), "m")
	assert.Error(t, err)
}
