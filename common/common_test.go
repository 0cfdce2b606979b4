package common

import (
	"testing"
)

func TestDataURL(t *testing.T) {
	g := Granule{
		ConceptID: "G1",
		RelatedURLs: []RelatedURL{
			{URL: "https://doc.example.org/readme.html", Type: "VIEW RELATED INFORMATION"},
			{URL: "https://archive.example.org/g1.nc", Type: "GET DATA"},
			{URL: "https://archive.example.org/g1-bis.nc", Type: "GET DATA"},
		},
	}
	url, ok := g.DataURL()
	if !ok {
		t.Fatal("expected a data url")
	}
	if url != "https://archive.example.org/g1.nc" {
		t.Errorf("expected the first GET DATA url, got %s", url)
	}

	if _, ok := (Granule{ConceptID: "G2"}).DataURL(); ok {
		t.Error("expected no data url")
	}
}

func TestBoundaryFormat(t *testing.T) {
	tests := []struct {
		path   string
		format BoundaryFormat
		mime   string
	}{
		{"aoi.zip", ShapefileZip, "application/shapefile+zip"},
		{"aoi.geojson", GeoJSON, "application/geo+json"},
		{"aoi.json", GeoJSON, "application/geo+json"},
		{"aoi.kml", KML, "application/vnd.google-earth.kml+xml"},
	}
	for _, tt := range tests {
		f, err := DetectBoundaryFormat(tt.path)
		if err != nil {
			t.Errorf("%s: %v", tt.path, err)
			continue
		}
		if f != tt.format || f.MimeType() != tt.mime {
			t.Errorf("%s: got %s (%s)", tt.path, f, f.MimeType())
		}
	}
	if _, err := DetectBoundaryFormat("aoi.gpkg"); err == nil {
		t.Error("expected an error for unsupported extension")
	}
}

func TestTemporalParam(t *testing.T) {
	start, end, err := ParseTemporal("2020-08-23", "2020-08-29T00:00:00Z")
	if err != nil {
		t.Fatalf("%v", err)
	}
	c := SearchCriteria{Start: start, End: end}
	if c.TemporalParam() != "2020-08-23T00:00:00Z,2020-08-29T00:00:00Z" {
		t.Errorf("got %s", c.TemporalParam())
	}
	if (SearchCriteria{}).TemporalParam() != "" {
		t.Error("expected empty temporal param")
	}
	if _, _, err := ParseTemporal("2020-08-29", "2020-08-23"); err == nil {
		t.Error("expected an error for end before start")
	}
	if _, _, err := ParseTemporal("not a date", "2020-08-23"); err == nil {
		t.Error("expected a parse error")
	}
}
