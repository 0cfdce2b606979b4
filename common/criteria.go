package common

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// SearchCriteria is the value object of a boundary-constrained granule search
type SearchCriteria struct {
	CollectionID   string
	BoundaryPath   string
	BoundaryFormat BoundaryFormat
	Start, End     time.Time
	PageSize       int
}

// TemporalParam formats the temporal range the way the catalog expects it:
// two RFC3339 dates joined by a comma.
func (c SearchCriteria) TemporalParam() string {
	if c.Start.IsZero() && c.End.IsZero() {
		return ""
	}
	return c.Start.UTC().Format(time.RFC3339) + "," + c.End.UTC().Format(time.RFC3339)
}

// ParseTemporal parses a user-provided start/end pair, accepting any
// reasonable date layout
func ParseTemporal(start, end string) (time.Time, time.Time, error) {
	s, err := dateparse.ParseIn(start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ParseTemporal[%s]: %w", start, err)
	}
	e, err := dateparse.ParseIn(end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ParseTemporal[%s]: %w", end, err)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("ParseTemporal: end %s is before start %s", end, start)
	}
	return s, e, nil
}
