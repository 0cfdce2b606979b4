// Package fetcher wires credential resolution, token exchange, catalog search
// and granule download into a single entry point used by the CLI and the HTTP
// server.
package fetcher

import (
	"context"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/downloader"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/interface/catalog/cmr"
	"github.com/oceanwatch/granule-fetcher/interface/credentials"
	"github.com/oceanwatch/granule-fetcher/preview"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// Config holds the endpoints and tuning of a Fetcher
type Config struct {
	// Machine is the credential machine name. Defaults to the host of TokenEndpoint.
	Machine         string
	TokenEndpoint   string
	LoginEndpoint   string
	CatalogEndpoint string
	ClientID        string
	WorkingDir      string
	Jobs            int
	QuicklookCmd    string
}

// Request describes one search-and-download run
type Request struct {
	ShortName string                `json:"short_name"`
	Provider  string                `json:"provider"`
	Criteria  common.SearchCriteria `json:"criteria"`
	// DestDir overrides the per-run working directory
	DestDir    string `json:"dest_dir,omitempty"`
	Quicklooks bool   `json:"quicklooks,omitempty"`
}

// Result is the outcome of a Fetch run
type Result struct {
	Collection common.CollectionMeta `json:"collection"`
	Granules   []common.Granule      `json:"granules"`
	Report     common.DownloadReport `json:"report"`
	Previews   []string              `json:"previews,omitempty"`
}

// Fetcher is the main class of this package
type Fetcher struct {
	Config     Config
	Creds      credentials.Provider
	token      auth.AccessToken
	catalog    *cmr.Client
	downloader *downloader.Downloader
	preview    *preview.Renderer
}

func NewFetcher(cfg Config, creds credentials.Provider) *Fetcher {
	f := &Fetcher{
		Config:     cfg,
		Creds:      creds,
		downloader: &downloader.Downloader{Jobs: cfg.Jobs},
	}
	if cfg.QuicklookCmd != "" {
		f.preview = preview.NewRenderer(cfg.QuicklookCmd)
	}
	return f
}

func (f *Fetcher) machine() (string, error) {
	if f.Config.Machine != "" {
		return f.Config.Machine, nil
	}
	u, err := neturl.Parse(f.Config.TokenEndpoint)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("machine: cannot derive machine name from %s", f.Config.TokenEndpoint)
	}
	return u.Hostname(), nil
}

// Connect resolves the credential, exchanges it for an access token and opens
// the authenticated catalog session. It must be called before Search or Fetch.
func (f *Fetcher) Connect(ctx context.Context) error {
	machine, err := f.machine()
	if err != nil {
		return fmt.Errorf("Connect.%w", err)
	}

	cred, err := f.Creds.Resolve(ctx, machine)
	if err != nil {
		return fmt.Errorf("Connect.%w", err)
	}

	token, err := auth.RequestToken(ctx, cred, f.Config.TokenEndpoint, f.Config.ClientID)
	if err != nil {
		return fmt.Errorf("Connect.%w", err)
	}
	f.token = token

	session, err := auth.NewSession(cred, f.Config.LoginEndpoint)
	if err != nil {
		return fmt.Errorf("Connect.%w", err)
	}
	f.catalog = cmr.NewClient(session, f.Config.CatalogEndpoint)

	log.Logger(ctx).Sugar().Infof("connected to %s as %s", machine, cred.Login)
	return nil
}

// Search resolves the collection and lists the matching granules. When the
// request carries a boundary file, the search is spatially constrained.
func (f *Fetcher) Search(ctx context.Context, req Request) (common.CollectionMeta, []common.Granule, error) {
	if f.catalog == nil {
		return common.CollectionMeta{}, nil, fmt.Errorf("Search: not connected")
	}

	collection, err := f.catalog.FindCollection(ctx, req.ShortName, req.Provider, f.token)
	if err != nil {
		return common.CollectionMeta{}, nil, fmt.Errorf("Search.%w", err)
	}

	var granules []common.Granule
	if req.Criteria.BoundaryPath != "" {
		criteria := req.Criteria
		criteria.CollectionID = collection.ConceptID
		granules, err = f.catalog.FindGranulesByBoundary(ctx, criteria, f.token)
	} else {
		granules, err = f.catalog.FindGranules(ctx, req.ShortName, req.Provider, f.token)
	}
	if err != nil {
		return collection, nil, fmt.Errorf("Search.%w", err)
	}

	log.Logger(ctx).Sugar().Infof("found %d granules in %s", len(granules), collection.ConceptID)
	return collection, granules, nil
}

// Fetch runs a full search-and-download: collection lookup, granule search,
// batch download and optional quicklook rendering. Per-granule download
// failures are reported in Result.Report, not as an error.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	runID := uuid.New().String()
	ctx = log.With(ctx, "run", runID)

	collection, granules, err := f.Search(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("Fetch.%w", err)
	}
	result := Result{Collection: collection, Granules: granules}

	destDir := req.DestDir
	if destDir == "" {
		destDir = filepath.Join(f.Config.WorkingDir, runID)
	}
	if err := os.MkdirAll(destDir, 0766); err != nil {
		return result, fmt.Errorf("Fetch.MkdirAll: %w", err)
	}

	report, err := f.downloader.DownloadAll(ctx, granules, destDir)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("Fetch.%w", err)
	}

	if req.Quicklooks && f.preview != nil {
		for _, file := range report.Files {
			out, err := f.preview.Render(ctx, file)
			if err != nil {
				log.Logger(ctx).Sugar().Warnf("Fetch: %v", err)
				continue
			}
			result.Previews = append(result.Previews, out)
		}
	}
	return result, nil
}
