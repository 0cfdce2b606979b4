package cmr

import (
	"context"
	"fmt"
	neturl "net/url"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// FindGranules searches granules by collection short name and provider,
// without spatial or temporal constraint. Only the first page of results is
// returned.
func (c *Client) FindGranules(ctx context.Context, shortName, provider string, token auth.AccessToken) ([]common.Granule, error) {
	resp, err := c.search(ctx, "/granules.umm_json", neturl.Values{
		"ShortName": {shortName},
		"provider":  {provider},
		"token":     {token.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("FindGranules.%w", err)
	}
	if resp.Hits > len(resp.Items) {
		log.Logger(ctx).Sugar().Warnf("FindGranules: %d granules match, only the first page of %d is returned", resp.Hits, len(resp.Items))
	}
	return resp.granules(), nil
}
