package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/interface/credentials"
)

type staticProvider struct {
	cred credentials.Credential
}

func (p staticProvider) Name() string { return "static" }
func (p staticProvider) Resolve(ctx context.Context, machine string) (credentials.Credential, error) {
	return p.cred, nil
}

// backend serves the token exchange, the catalog search routes and a data file
// from a single test server.
func backend(t *testing.T) *httptest.Server {
	var srv *httptest.Server
	handler := http.NewServeMux()
	handler.HandleFunc("/api/users/token", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"token":{"id":"tok-1234"}}`)
	})
	handler.HandleFunc("/ip", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "192.0.2.1")
	})
	handler.HandleFunc("/search/collections.umm_json", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"hits":1,"items":[{"meta":{"concept-id":"C1940473819-POCLOUD","provider-id":"POCLOUD","revision-id":4},"umm":{"ShortName":"MODIS_T-JPL-L2P-v2019.0"}}]}`)
	})
	handler.HandleFunc("/search/granules.umm_json", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, `{"hits":1,"items":[{"meta":{"concept-id":"G1-POCLOUD","collection-concept-id":"C1940473819-POCLOUD"},"umm":{"GranuleUR":"granule-1","RelatedUrls":[{"URL":"%s/data/granule-1.nc","Type":"GET DATA"}]}}]}`, srv.URL)
	})
	handler.HandleFunc("/data/granule-1.nc", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "sst bytes")
	})
	srv = httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, srv *httptest.Server) *Fetcher {
	prev := auth.WhatsMyIPURL
	auth.WhatsMyIPURL = srv.URL + "/ip"
	t.Cleanup(func() { auth.WhatsMyIPURL = prev })

	return NewFetcher(Config{
		TokenEndpoint:   srv.URL + "/api/users/token",
		LoginEndpoint:   srv.URL,
		CatalogEndpoint: srv.URL + "/search",
		ClientID:        "granule-fetcher-test",
		WorkingDir:      t.TempDir(),
		Jobs:            2,
	}, staticProvider{credentials.Credential{Login: "jane", Password: "secret"}})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(ctx))

	result, err := f.Fetch(ctx, Request{ShortName: "MODIS_T-JPL-L2P-v2019.0", Provider: "POCLOUD"})
	require.NoError(t, err)

	assert.Equal(t, "C1940473819-POCLOUD", result.Collection.ConceptID)
	require.Len(t, result.Report.Files, 1)
	assert.Empty(t, result.Report.Failures)

	content, err := os.ReadFile(result.Report.Files[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "sst bytes", string(content))
}

func TestFetchDestDir(t *testing.T) {
	ctx := context.Background()
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(ctx))

	dest := filepath.Join(t.TempDir(), "run")
	result, err := f.Fetch(ctx, Request{ShortName: "MODIS_T-JPL-L2P-v2019.0", DestDir: dest})
	require.NoError(t, err)
	require.Len(t, result.Report.Files, 1)
	assert.Equal(t, dest, filepath.Dir(result.Report.Files[0].LocalPath))
}

func TestSearchNotConnected(t *testing.T) {
	f := NewFetcher(Config{}, staticProvider{})
	_, _, err := f.Search(context.Background(), Request{ShortName: "x"})
	assert.Error(t, err)
}

func TestGranulesHandler(t *testing.T) {
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(context.Background()))

	r := mux.NewRouter()
	f.AddHandler(r)

	req := httptest.NewRequest("GET", "/catalog/granules?short_name=MODIS_T-JPL-L2P-v2019.0&provider=POCLOUD", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	var granules []common.Granule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &granules))
	require.Len(t, granules, 1)
	assert.Equal(t, "G1-POCLOUD", granules[0].ConceptID)
}

func TestGranulesHandlerBoundaryUpload(t *testing.T) {
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(context.Background()))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("short_name", "MODIS_T-JPL-L2P-v2019.0"))
	part, err := w.CreateFormFile("boundary", "aoi.geojson")
	require.NoError(t, err)
	_, err = io.WriteString(part, `{"type":"Polygon","coordinates":[[[-130,30],[-120,30],[-120,40],[-130,40],[-130,30]]]}`)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := mux.NewRouter()
	f.AddHandler(r)

	req := httptest.NewRequest("POST", "/catalog/granules", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var granules []common.Granule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &granules))
	require.Len(t, granules, 1)

	// the spooled boundary file is removed once the search is done
	entries, err := os.ReadDir(f.Config.WorkingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGranulesHandlerMissingShortName(t *testing.T) {
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(context.Background()))

	r := mux.NewRouter()
	f.AddHandler(r)

	req := httptest.NewRequest("GET", "/catalog/granules", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
}

func TestCollectionHandler(t *testing.T) {
	srv := backend(t)
	f := newTestFetcher(t, srv)
	require.NoError(t, f.Connect(context.Background()))

	r := mux.NewRouter()
	f.AddHandler(r)

	req := httptest.NewRequest("GET", "/catalog/collection?short_name=MODIS_T-JPL-L2P-v2019.0&provider=POCLOUD", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	var meta common.CollectionMeta
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "C1940473819-POCLOUD", meta.ConceptID)
}
