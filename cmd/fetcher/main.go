package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/fetcher"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/interface/catalog/cmr"
	"github.com/oceanwatch/granule-fetcher/interface/credentials"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

type config struct {
	Fetcher fetcher.Config
	Request fetcher.Request

	NetrcPath      string
	NonInteractive bool
	SearchOnly     bool
}

func newAppConfig() (*config, error) {
	config := config{}
	// Collection & search
	flag.StringVar(&config.Request.ShortName, "short-name", "", "collection short name (e.g. MODIS_T-JPL-L2P-v2019.0)")
	flag.StringVar(&config.Request.Provider, "provider", "", "collection provider id (e.g. POCLOUD) (optional)")
	boundary := flag.String("boundary", "", "boundary file constraining the search: zipped shapefile, geojson or kml (optional)")
	format := flag.String("format", "", "boundary format: shapefile, geojson or kml (optional, derived from the file extension)")
	start := flag.String("start", "", "start of the temporal range (optional)")
	end := flag.String("end", "", "end of the temporal range (optional)")
	flag.IntVar(&config.Request.Criteria.PageSize, "page-size", 0, "maximum number of granules to return (optional)")
	flag.BoolVar(&config.SearchOnly, "search-only", false, "list the matching granules without downloading them")

	// Download
	flag.StringVar(&config.Request.DestDir, "dest", "", "destination directory for downloaded granules (default: a fresh directory under workdir)")
	flag.StringVar(&config.Fetcher.WorkingDir, "workdir", ".", "working directory")
	flag.IntVar(&config.Fetcher.Jobs, "jobs", 4, "number of parallel downloads")
	flag.StringVar(&config.Fetcher.QuicklookCmd, "quicklook-cmd", "", "command rendering a quicklook image, with {FILE} and {OUT} placeholders (optional)")
	flag.BoolVar(&config.Request.Quicklooks, "quicklooks", false, "render a quicklook for each downloaded granule (requires quicklook-cmd)")

	// Endpoints & credentials
	flag.StringVar(&config.Fetcher.TokenEndpoint, "token-endpoint", "https://cmr.earthdata.nasa.gov/legacy-services/rest/tokens", "token exchange endpoint")
	flag.StringVar(&config.Fetcher.LoginEndpoint, "login-endpoint", "https://urs.earthdata.nasa.gov", "login endpoint for the authenticated session")
	flag.StringVar(&config.Fetcher.CatalogEndpoint, "catalog-endpoint", cmr.DefaultBaseURL, "catalog search endpoint")
	flag.StringVar(&config.Fetcher.ClientID, "client-id", auth.DefaultClientID, "client id sent with the token request")
	flag.StringVar(&config.Fetcher.Machine, "machine", "urs.earthdata.nasa.gov", "machine name of the credential in the secrets file")
	flag.StringVar(&config.NetrcPath, "netrc", "", "path to the netrc-style secrets file (default: ~/.netrc)")
	flag.BoolVar(&config.NonInteractive, "non-interactive", false, "never prompt for credentials")

	flag.Parse()

	if config.Request.ShortName == "" {
		return nil, fmt.Errorf("missing short-name config flag")
	}

	if *boundary != "" {
		config.Request.Criteria.BoundaryPath = *boundary
		if *format != "" {
			config.Request.Criteria.BoundaryFormat = common.BoundaryFormatFromUserInput(*format)
			if config.Request.Criteria.BoundaryFormat == common.UndefinedBoundary {
				return nil, fmt.Errorf("unrecognized boundary format: %s", *format)
			}
		} else {
			var err error
			if config.Request.Criteria.BoundaryFormat, err = common.DetectBoundaryFormat(*boundary); err != nil {
				return nil, err
			}
		}
	}

	if *start != "" || *end != "" {
		var err error
		if config.Request.Criteria.Start, config.Request.Criteria.End, err = common.ParseTemporal(*start, *end); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}

	chain := credentials.Chain{
		credentials.NewNetrcProvider(config.NetrcPath),
		credentials.NewKeyringProvider(),
	}
	if !config.NonInteractive {
		chain = append(chain, credentials.NewPromptProvider())
	}

	f := fetcher.NewFetcher(config.Fetcher, chain)
	if err := f.Connect(ctx); err != nil {
		return fmt.Errorf("run.%w", err)
	}

	if config.SearchOnly {
		_, granules, err := f.Search(ctx, config.Request)
		if err != nil {
			return fmt.Errorf("run.%w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(granules)
	}

	result, err := f.Fetch(ctx, config.Request)
	if err != nil {
		return fmt.Errorf("run.%w", err)
	}
	if err := json.NewEncoder(os.Stdout).Encode(result.Report); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	log.Logger(ctx).Sugar().Infof("downloaded %d/%d granules", len(result.Report.Files), len(result.Granules))
	return result.Report.Err()
}
