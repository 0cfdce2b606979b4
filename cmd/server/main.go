package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/oceanwatch/granule-fetcher/fetcher"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/interface/catalog/cmr"
	"github.com/oceanwatch/granule-fetcher/interface/credentials"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

type config struct {
	Fetcher fetcher.Config
	AppPort string

	NetrcPath string
}

func newAppConfig() (*config, error) {
	config := config{}
	flag.StringVar(&config.AppPort, "port", "8080", "port to serve the search and fetch routes")
	flag.StringVar(&config.Fetcher.WorkingDir, "workdir", "/local-ssd", "working directory to store downloaded granules")
	flag.IntVar(&config.Fetcher.Jobs, "jobs", 4, "number of parallel downloads")
	flag.StringVar(&config.Fetcher.QuicklookCmd, "quicklook-cmd", "", "command rendering a quicklook image, with {FILE} and {OUT} placeholders (optional)")

	flag.StringVar(&config.Fetcher.TokenEndpoint, "token-endpoint", "https://cmr.earthdata.nasa.gov/legacy-services/rest/tokens", "token exchange endpoint")
	flag.StringVar(&config.Fetcher.LoginEndpoint, "login-endpoint", "https://urs.earthdata.nasa.gov", "login endpoint for the authenticated session")
	flag.StringVar(&config.Fetcher.CatalogEndpoint, "catalog-endpoint", cmr.DefaultBaseURL, "catalog search endpoint")
	flag.StringVar(&config.Fetcher.ClientID, "client-id", auth.DefaultClientID, "client id sent with the token request")
	flag.StringVar(&config.Fetcher.Machine, "machine", "urs.earthdata.nasa.gov", "machine name of the credential in the secrets file")
	flag.StringVar(&config.NetrcPath, "netrc", "", "path to the netrc-style secrets file (default: ~/.netrc)")

	flag.Parse()

	if config.AppPort == "" {
		return nil, fmt.Errorf("missing port config flag")
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

	// A server never prompts: the credential must come from the secrets file
	// or the system keyring.
	chain := credentials.Chain{
		credentials.NewNetrcProvider(config.NetrcPath),
		credentials.NewKeyringProvider(),
	}

	f := fetcher.NewFetcher(config.Fetcher, chain)
	if err := f.Connect(ctx); err != nil {
		return fmt.Errorf("run.%w", err)
	}

	router := mux.NewRouter()
	f.AddHandler(router)

	headersOk := handlers.AllowedHeaders([]string{"*"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})
	s := http.Server{
		Addr:    ":" + config.AppPort,
		Handler: handlers.CORS(originsOk, headersOk, methodsOk)(router),
	}

	log.Logger(ctx).Debug("granule-fetcher server starts on :" + config.AppPort)
	return s.ListenAndServe()
}
