// Package cmr is the client of the metadata catalog search service: collection
// search, granule search and shapefile-constrained granule search.
package cmr

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/service"
)

// DefaultBaseURL is the public search endpoint of the catalog
const DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

// Client issues parameterized queries against the catalog search endpoints.
// All requests go through the installed session; catalog errors are never
// retried (they indicate a malformed query, not a transient condition).
type Client struct {
	BaseURL string
	Session *auth.Session
}

// NewClient creates a catalog client over an authenticated session
func NewClient(session *auth.Session, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, Session: session}
}

func (c *Client) httpClient() *http.Client {
	if c.Session != nil {
		return c.Session.Client()
	}
	return http.DefaultClient
}

// ErrCollectionNotFound is returned when a collection search matches nothing
type ErrCollectionNotFound struct {
	ShortName string
	Provider  string
}

func (e ErrCollectionNotFound) Error() string {
	return fmt.Sprintf("collection not found: %s (provider %s)", e.ShortName, e.Provider)
}

// ErrCatalogRequest is returned on a non-2xx response or an unreadable body
type ErrCatalogRequest struct {
	Status int
	Body   string
}

func (e ErrCatalogRequest) Error() string {
	return fmt.Sprintf("catalog request failed [status:%d]: %s", e.Status, e.Body)
}

// umm_json response: items carry a meta block and a umm block
type searchResponse struct {
	Hits  int `json:"hits"`
	Items []struct {
		Meta struct {
			ConceptID    string `json:"concept-id"`
			CollectionID string `json:"collection-concept-id"`
			ProviderID   string `json:"provider-id"`
			RevisionID   int    `json:"revision-id"`
		} `json:"meta"`
		UMM struct {
			ShortName   string `json:"ShortName"`
			GranuleUR   string `json:"GranuleUR"`
			RelatedURLs []struct {
				URL         string `json:"URL"`
				Type        string `json:"Type"`
				Description string `json:"Description"`
			} `json:"RelatedUrls"`
		} `json:"umm"`
	} `json:"items"`
}

func parseSearchResponse(status int, body []byte) (searchResponse, error) {
	if status/100 != 2 {
		return searchResponse{}, ErrCatalogRequest{Status: status, Body: service.BodyExcerpt(body, 512)}
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return searchResponse{}, ErrCatalogRequest{Status: status, Body: fmt.Sprintf("malformed response (%v): %s", err, service.BodyExcerpt(body, 512))}
	}
	return resp, nil
}

func (r searchResponse) granules() []common.Granule {
	granules := make([]common.Granule, len(r.Items))
	for i, item := range r.Items {
		g := common.Granule{
			ConceptID:    item.Meta.ConceptID,
			CollectionID: item.Meta.CollectionID,
			Title:        item.UMM.GranuleUR,
		}
		for _, u := range item.UMM.RelatedURLs {
			g.RelatedURLs = append(g.RelatedURLs, common.RelatedURL{URL: u.URL, Type: u.Type, Description: u.Description})
		}
		granules[i] = g
	}
	return granules
}
