package auth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"

	"github.com/oceanwatch/granule-fetcher/interface/credentials"
	"golang.org/x/net/publicsuffix"
)

// Session is an HTTP client carrying basic-auth credentials scoped to the
// login host and a cookie jar shared by all requests of the process (the
// login service issues a session cookie after the first authenticated
// redirect). It is read-only configuration after creation: requests never
// mutate it, so it is safe for concurrent use.
type Session struct {
	client *http.Client
	host   string
}

// NewSession installs an authenticated session for the given login endpoint
func NewSession(cred credentials.Credential, endpoint string) (*Session, error) {
	u, err := neturl.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("NewSession.Parse: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("NewSession: no host in endpoint %s", endpoint)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("NewSession.CookieJar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Jar: jar,
			Transport: &scopedBasicAuth{
				host:  u.Host,
				login: cred.Login,
				pword: cred.Password,
				base:  http.DefaultTransport,
			},
		},
		host: u.Host,
	}, nil
}

// Client returns the session's HTTP client
func (s *Session) Client() *http.Client {
	return s.client
}

// Host returns the login host the basic-auth credentials are scoped to
func (s *Session) Host() string {
	return s.host
}

// scopedBasicAuth applies basic auth only to requests addressed to the login
// host, so the credentials never leak to redirect targets or data archives.
type scopedBasicAuth struct {
	host  string
	login string
	pword string
	base  http.RoundTripper
}

func (t *scopedBasicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == t.host {
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.login, t.pword)
	}
	return t.base.RoundTrip(req)
}
