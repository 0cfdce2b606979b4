package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPGetWithAuth issues a GET over the given client. Basic-auth and bearer
// token are both optional. The caller owns the response body.
func HTTPGetWithAuth(ctx context.Context, client *http.Client, url, authName, authPswd, authToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPGet: %w", err)
	}
	return doWithAuth(client, req, authName, authPswd, authToken)
}

// HTTPPostWithAuth issues a POST over the given client. The caller owns the response body.
func HTTPPostWithAuth(ctx context.Context, client *http.Client, url string, body io.Reader, contentType, authName, authPswd, authToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPPost: %w", err)
	}
	req.Header.Add("Content-Type", contentType)
	return doWithAuth(client, req, authName, authPswd, authToken)
}

func doWithAuth(client *http.Client, req *http.Request, authName, authPswd, authToken string) (*http.Response, error) {
	if authName != "" {
		req.SetBasicAuth(authName, authPswd)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	if client == nil {
		client = &http.Client{}
	}
	return client.Do(req)
}

// BodyExcerpt truncates a response body for inclusion in an error message.
func BodyExcerpt(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
