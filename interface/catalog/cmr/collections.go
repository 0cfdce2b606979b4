package cmr

import (
	"context"
	"fmt"
	"io"
	neturl "net/url"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/service"
)

// FindCollection searches the catalog for a collection by short name and
// provider. Fails with ErrCollectionNotFound when the items array is empty.
func (c *Client) FindCollection(ctx context.Context, shortName, provider string, token auth.AccessToken) (common.CollectionMeta, error) {
	resp, err := c.search(ctx, "/collections.umm_json", neturl.Values{
		"ShortName": {shortName},
		"provider":  {provider},
		"token":     {token.ID},
	})
	if err != nil {
		return common.CollectionMeta{}, fmt.Errorf("FindCollection.%w", err)
	}
	if len(resp.Items) == 0 {
		return common.CollectionMeta{}, ErrCollectionNotFound{ShortName: shortName, Provider: provider}
	}

	item := resp.Items[0]
	return common.CollectionMeta{
		ConceptID:  item.Meta.ConceptID,
		ShortName:  item.UMM.ShortName,
		Provider:   item.Meta.ProviderID,
		RevisionID: item.Meta.RevisionID,
	}, nil
}

// search issues a GET on the given catalog route and parses the umm_json body
func (c *Client) search(ctx context.Context, route string, params neturl.Values) (searchResponse, error) {
	url := c.BaseURL + route + "?" + params.Encode()
	resp, err := service.HTTPGetWithAuth(ctx, c.httpClient(), url, "", "", "")
	if err != nil {
		return searchResponse{}, fmt.Errorf("search.%w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return searchResponse{}, fmt.Errorf("search.ReadAll: %w", err)
	}
	return parseSearchResponse(resp.StatusCode, body)
}
