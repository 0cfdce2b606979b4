package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

const boundaryFileField = "boundary"

func (f *Fetcher) AddHandler(r *mux.Router) {
	r.HandleFunc("/catalog/collection", f.CollectionHandler).Methods("GET")
	r.HandleFunc("/catalog/granules", f.GranulesHandler).Methods("GET")
	r.HandleFunc("/catalog/granules", f.GranulesHandler).Methods("POST")
	r.HandleFunc("/fetch", f.FetchHandler).Methods("POST")
}

// loadRequest builds a Request from form fields. An uploaded boundary file is
// spooled under the working directory with a unique name so that concurrent
// requests cannot clobber each other; cleanup removes it.
func (f *Fetcher) loadRequest(req *http.Request) (Request, func(), error) {
	cleanup := func() {}
	r := Request{
		ShortName: req.FormValue("short_name"),
		Provider:  req.FormValue("provider"),
		DestDir:   req.FormValue("dest_dir"),
	}
	if r.ShortName == "" {
		return r, cleanup, fmt.Errorf("loadRequest: missing required field: 'short_name'")
	}

	if start, end := req.FormValue("start"), req.FormValue("end"); start != "" || end != "" {
		var err error
		if r.Criteria.Start, r.Criteria.End, err = common.ParseTemporal(start, end); err != nil {
			return r, cleanup, fmt.Errorf("loadRequest: %w", err)
		}
	}
	if ps := req.FormValue("page_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			return r, cleanup, fmt.Errorf("loadRequest: page_size: %w", err)
		}
		r.Criteria.PageSize = n
	}
	if q := req.FormValue("quicklooks"); q != "" {
		r.Quicklooks, _ = strconv.ParseBool(q)
	}

	file, header, err := req.FormFile(boundaryFileField)
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return r, cleanup, nil
	}
	if err != nil {
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(f.Config.WorkingDir, 0766); err != nil {
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	local := filepath.Join(f.Config.WorkingDir, uuid.New().String()+filepath.Ext(header.Filename))
	dst, err := os.Create(local)
	if err != nil {
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	cleanup = func() { os.Remove(local) }
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	if err := dst.Close(); err != nil {
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	r.Criteria.BoundaryPath = local

	if format := req.FormValue("format"); format != "" {
		r.Criteria.BoundaryFormat = common.BoundaryFormatFromUserInput(format)
	} else if r.Criteria.BoundaryFormat, err = common.DetectBoundaryFormat(local); err != nil {
		return r, cleanup, fmt.Errorf("loadRequest: %w", err)
	}
	return r, cleanup, nil
}

// CollectionHandler resolves a collection by short name and provider
func (f *Fetcher) CollectionHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	shortName, provider := req.FormValue("short_name"), req.FormValue("provider")
	if shortName == "" {
		w.WriteHeader(400)
		fmt.Fprintf(w, "missing required field: 'short_name'")
		return
	}

	collection, err := f.catalog.FindCollection(ctx, shortName, provider, f.token)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.CollectionHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}

	if err := json.NewEncoder(w).Encode(collection); err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.CollectionHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
	}
}

// GranulesHandler lists granules for a collection, optionally constrained by
// an uploaded boundary file, and returns a json
func (f *Fetcher) GranulesHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	r, cleanup, err := f.loadRequest(req)
	defer cleanup()
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	_, granules, err := f.Search(ctx, r)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.GranulesHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}

	if err := json.NewEncoder(w).Encode(granules); err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.GranulesHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
	}
}

// FetchHandler runs a full search-and-download and returns the report
func (f *Fetcher) FetchHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	r, cleanup, err := f.loadRequest(req)
	defer cleanup()
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	result, err := f.Fetch(ctx, r)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.FetchHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Logger(ctx).Sugar().Warnf("fetcher.FetchHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
	}
}
