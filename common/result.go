package common

import "fmt"

// DownloadedFile is a granule data file written to local storage
type DownloadedFile struct {
	GranuleID string `json:"granule_id"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
}

// DownloadFailure records one granule of a batch that could not be downloaded
type DownloadFailure struct {
	GranuleID string `json:"granule_id"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// DownloadReport is the outcome of a batch download: files and failures side
// by side, successes in input order. A partial success is never silent.
type DownloadReport struct {
	Files    []DownloadedFile  `json:"files"`
	Failures []DownloadFailure `json:"failures,omitempty"`
}

// Err returns nil if every granule of the batch was downloaded, or an error
// summarizing the per-granule failures.
func (r DownloadReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d/%d granules failed (first: %s: %s)",
		len(r.Failures), len(r.Files)+len(r.Failures), r.Failures[0].GranuleID, r.Failures[0].Message)
}
