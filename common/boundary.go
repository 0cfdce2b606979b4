package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BoundaryFormat defines the kind of geographic boundary file used to
// constrain a granule search
type BoundaryFormat int

const (
	UndefinedBoundary BoundaryFormat = iota
	ShapefileZip                     // zipped ESRI shapefile (.shp + companions)
	GeoJSON
	KML
)

// MimeType returns the mime type the catalog expects for the boundary file part
func (f BoundaryFormat) MimeType() string {
	switch f {
	case ShapefileZip:
		return "application/shapefile+zip"
	case GeoJSON:
		return "application/geo+json"
	case KML:
		return "application/vnd.google-earth.kml+xml"
	}
	return ""
}

func (f BoundaryFormat) String() string {
	switch f {
	case ShapefileZip:
		return "shapefile"
	case GeoJSON:
		return "geojson"
	case KML:
		return "kml"
	}
	return "undefined"
}

// BoundaryFormatFromUserInput returns the format from a user-provided name
func BoundaryFormatFromUserInput(input string) BoundaryFormat {
	switch strings.ToLower(input) {
	case "shapefile", "shp", "esri", "zip":
		return ShapefileZip
	case "geojson", "json":
		return GeoJSON
	case "kml":
		return KML
	}
	return UndefinedBoundary
}

// DetectBoundaryFormat guesses the format from the file extension
func DetectBoundaryFormat(path string) (BoundaryFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".shp":
		return ShapefileZip, nil
	case ".geojson", ".json":
		return GeoJSON, nil
	case ".kml":
		return KML, nil
	}
	return UndefinedBoundary, fmt.Errorf("DetectBoundaryFormat: unsupported boundary file: %s", path)
}
