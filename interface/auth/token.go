// Package auth exchanges a credential for a catalog access token and builds
// the cookie-bearing HTTP session used by every subsequent catalog request.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/oceanwatch/granule-fetcher/interface/credentials"
	"github.com/oceanwatch/granule-fetcher/service"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// DefaultClientID identifies this client to the token service
const DefaultClientID = "granule-fetcher"

// WhatsMyIPURL is the best-effort service used to discover the caller IP
// required by the token request body
var WhatsMyIPURL = "https://ipinfo.io/ip"

// AccessToken is a short-lived credential for authenticated catalog access.
// The server-side expiry is not tracked locally.
type AccessToken struct {
	ID       string
	Endpoint string
}

// ErrAuthFailed is returned on a failed token exchange. Fatal for the whole
// run: retrying would just replay the same bad credentials.
type ErrAuthFailed struct {
	Status int
	Body   string
}

func (e ErrAuthFailed) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed [status:%d]: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("authentication failed: %s", e.Body)
}

type tokenRequest struct {
	XMLName  xml.Name `xml:"token"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
	ClientID string   `xml:"client_id"`
	UserIP   string   `xml:"user_ip_address"`
}

// RequestToken exchanges the credential for an access token. The caller IP is
// obtained with a best-effort external lookup and left empty on failure.
func RequestToken(ctx context.Context, cred credentials.Credential, endpoint, clientID string) (AccessToken, error) {
	if clientID == "" {
		clientID = DefaultClientID
	}

	body, err := xml.Marshal(tokenRequest{
		Username: cred.Login,
		Password: cred.Password,
		ClientID: clientID,
		UserIP:   callerIP(ctx),
	})
	if err != nil {
		return AccessToken{}, fmt.Errorf("RequestToken.Marshal: %w", err)
	}

	resp, err := service.HTTPPostWithAuth(ctx, nil, endpoint, bytes.NewReader(body), "application/xml", "", "", "")
	if err != nil {
		return AccessToken{}, fmt.Errorf("RequestToken: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessToken{}, fmt.Errorf("RequestToken.ReadAll: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return AccessToken{}, ErrAuthFailed{Status: resp.StatusCode, Body: service.BodyExcerpt(respBody, 256)}
	}

	token := struct {
		Token struct {
			ID string `json:"id"`
		} `json:"token"`
	}{}
	if err := json.Unmarshal(respBody, &token); err != nil {
		return AccessToken{}, ErrAuthFailed{Status: resp.StatusCode, Body: fmt.Sprintf("unreadable token response: %v", err)}
	}
	if token.Token.ID == "" {
		return AccessToken{}, ErrAuthFailed{Status: resp.StatusCode, Body: "token id not found in " + service.BodyExcerpt(respBody, 256)}
	}
	return AccessToken{ID: token.Token.ID, Endpoint: endpoint}, nil
}

// callerIP returns the public IP of the caller, or "" if the lookup fails
func callerIP(ctx context.Context) string {
	body, err := service.GetBodyRetry(WhatsMyIPURL, 1)
	if err != nil {
		log.Logger(ctx).Sugar().Debugf("callerIP: %v", err)
		return ""
	}
	return strings.TrimSpace(string(body))
}
