package cmr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mholt/archiver"
	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/interface/auth"
	"github.com/oceanwatch/granule-fetcher/service"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// shapefile companions packed together with a bare .shp
var shapefileExtensions = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// FindGranulesByBoundary searches granules of a collection intersecting the
// given boundary file within a temporal range. The boundary bytes are sent as
// a multipart file part tagged with their declared mime type; the catalog does
// the spatial filtering. At most criteria.PageSize granules are returned:
// pagination beyond the first page is out of scope.
func (c *Client) FindGranulesByBoundary(ctx context.Context, criteria common.SearchCriteria, token auth.AccessToken) ([]common.Granule, error) {
	boundary, err := prepareBoundary(ctx, criteria.BoundaryPath, criteria.BoundaryFormat)
	if err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.%w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	{
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="shapefile"; filename="%s"`, filepath.Base(criteria.BoundaryPath)))
		h.Set("Content-Type", criteria.BoundaryFormat.MimeType())
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("FindGranulesByBoundary.CreatePart: %w", err)
		}
		if _, err := part.Write(boundary); err != nil {
			return nil, fmt.Errorf("FindGranulesByBoundary.Write: %w", err)
		}
	}
	fields := map[string]string{
		"collection_concept_id": criteria.CollectionID,
		"token":                 token.ID,
		"temporal":              criteria.TemporalParam(),
	}
	// an unset page size must not reach the catalog: page_size=0 means "no results"
	if criteria.PageSize > 0 {
		fields["page_size"] = strconv.Itoa(criteria.PageSize)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("FindGranulesByBoundary.WriteField: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.Close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/granules.umm_json", &buf)
	if err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.NewRequest: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.Do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.ReadAll: %w", err)
	}
	parsed, err := parseSearchResponse(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("FindGranulesByBoundary.%w", err)
	}

	granules := parsed.granules()
	if criteria.PageSize > 0 && len(granules) > criteria.PageSize {
		granules = granules[:criteria.PageSize]
	}
	if parsed.Hits > len(granules) {
		log.Logger(ctx).Sugar().Warnf("FindGranulesByBoundary: %d granules match, only the first page of %d is returned", parsed.Hits, len(granules))
	}
	return granules, nil
}

// prepareBoundary loads the boundary file bytes to upload. A GeoJSON boundary
// is validated locally before upload; a bare .shp (or a directory of
// shapefile components) is packed into the zip the catalog expects. Archive
// and KML payloads are passed through verbatim so that a server-side
// rejection of a bad file stays observable.
func prepareBoundary(ctx context.Context, path string, format common.BoundaryFormat) ([]byte, error) {
	switch format {
	case common.GeoJSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("prepareBoundary.ReadFile: %w", err)
		}
		if _, err := service.UnmarshalGeometry(data); err != nil {
			return nil, fmt.Errorf("prepareBoundary: invalid GeoJSON boundary %s: %w", path, err)
		}
		return data, nil

	case common.ShapefileZip:
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("prepareBoundary.Stat: %w", err)
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
			return os.ReadFile(path)
		}
		return packShapefile(ctx, path, info.IsDir())

	case common.KML:
		return os.ReadFile(path)
	}
	return nil, fmt.Errorf("prepareBoundary: undefined boundary format for %s", path)
}

// packShapefile zips a directory of shapefile components, or a .shp and its
// siblings, into a temporary archive and returns its bytes
func packShapefile(ctx context.Context, path string, isDir bool) ([]byte, error) {
	var sources []string
	if isDir {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("packShapefile.ReadDir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				sources = append(sources, filepath.Join(path, e.Name()))
			}
		}
	} else {
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		for _, ext := range shapefileExtensions {
			if _, err := os.Stat(stem + ext); err == nil {
				sources = append(sources, stem+ext)
			}
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("packShapefile: no shapefile components found at %s", path)
	}

	tmpdir, err := os.MkdirTemp("", "boundary")
	if err != nil {
		return nil, fmt.Errorf("packShapefile.MkdirTemp: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	zipPath := filepath.Join(tmpdir, "boundary.zip")
	if err := archiver.Archive(sources, zipPath); err != nil {
		return nil, fmt.Errorf("packShapefile.Archive: %w", err)
	}
	log.Logger(ctx).Sugar().Debugf("packed %d shapefile components from %s", len(sources), path)
	return os.ReadFile(zipPath)
}
