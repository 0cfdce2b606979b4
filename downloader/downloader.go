// Package downloader streams granule data files to local storage.
package downloader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/service"
	"github.com/oceanwatch/granule-fetcher/service/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoDownloadableURL is an error returned when a granule has no related URL
// of type "GET DATA"
type ErrNoDownloadableURL struct {
	GranuleID string
}

func (e ErrNoDownloadableURL) Error() string {
	return fmt.Sprintf("no downloadable url (type %q): %s", common.RelatedURLTypeGetData, e.GranuleID)
}

// Downloader fetches granule data files over plain HTTP(S) or FTP. The data
// archive uses pre-signed or public access, so no authenticated session is
// involved here.
type Downloader struct {
	// Jobs bounds the number of parallel downloads in a batch; <= 1 means
	// strictly sequential.
	Jobs int
}

// Download fetches the granule's data file into destDir, named by the URL's
// basename. The response body is written verbatim.
func (d *Downloader) Download(ctx context.Context, granule common.Granule, destDir string) (common.DownloadedFile, error) {
	name, rawurl, err := localName(granule)
	if err != nil {
		return common.DownloadedFile{}, err
	}
	return d.downloadTo(ctx, granule, rawurl, filepath.Join(destDir, name))
}

// DownloadAll fetches the granules strictly in input order, bounded by Jobs
// parallel transfers. A granule failure never aborts the batch: the report
// lists every downloaded file and every per-granule failure side by side,
// successes in input order.
func (d *Downloader) DownloadAll(ctx context.Context, granules []common.Granule, destDir string) (common.DownloadReport, error) {
	if err := os.MkdirAll(destDir, 0766); err != nil {
		return common.DownloadReport{}, service.MakeTemporary(fmt.Errorf("make directory %s: %w", destDir, err))
	}

	jobs := d.Jobs
	if jobs < 1 {
		jobs = 1
	}

	files := make([]*common.DownloadedFile, len(granules))
	failures := make([]*common.DownloadFailure, len(granules))

	// basenames collide across collections; disambiguate with the concept id
	seen := service.StringSet{}
	names := make([]string, len(granules))
	urls := make([]string, len(granules))
	for i, granule := range granules {
		name, rawurl, err := localName(granule)
		if err != nil {
			failures[i] = &common.DownloadFailure{GranuleID: granule.ConceptID, Message: err.Error(), Err: err}
			continue
		}
		if seen.Exists(name) {
			name = granule.ConceptID + "_" + name
		}
		seen.Push(name)
		names[i], urls[i] = name, rawurl
	}

	wg := errgroup.Group{}
	wg.SetLimit(jobs)
	for i, granule := range granules {
		if failures[i] != nil {
			continue
		}
		i, granule := i, granule
		wg.Go(func() error {
			f, err := d.downloadTo(ctx, granule, urls[i], filepath.Join(destDir, names[i]))
			if err != nil {
				log.Logger(ctx).Sugar().Warnf("%v", err)
				failures[i] = &common.DownloadFailure{GranuleID: granule.ConceptID, Message: err.Error(), Err: err}
				return nil
			}
			files[i] = &f
			return nil
		})
	}
	wg.Wait()

	report := common.DownloadReport{}
	for i := range granules {
		switch {
		case files[i] != nil:
			report.Files = append(report.Files, *files[i])
		case failures[i] != nil:
			report.Failures = append(report.Failures, *failures[i])
		}
	}
	return report, ctx.Err()
}

func (d *Downloader) downloadTo(ctx context.Context, granule common.Granule, rawurl, localPath string) (common.DownloadedFile, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return common.DownloadedFile{}, fmt.Errorf("downloadTo[%s].Parse: %w", granule.ConceptID, err)
	}

	log.Logger(ctx).Sugar().Infof("downloading %s from %s", granule.ConceptID, rawurl)
	switch u.Scheme {
	case "ftp":
		err = downloadFTP(ctx, u, localPath)
	default:
		err = downloadHTTP(ctx, rawurl, localPath, granule.ConceptID)
	}
	if err != nil {
		return common.DownloadedFile{}, fmt.Errorf("downloadTo[%s].%w", granule.ConceptID, err)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return common.DownloadedFile{}, fmt.Errorf("downloadTo[%s].Stat: %w", granule.ConceptID, err)
	}
	return common.DownloadedFile{GranuleID: granule.ConceptID, LocalPath: localPath, Size: info.Size()}, nil
}

// localName returns the local file name (the data URL's basename) and the URL
func localName(granule common.Granule) (string, string, error) {
	rawurl, ok := granule.DataURL()
	if !ok {
		return "", "", ErrNoDownloadableURL{GranuleID: granule.ConceptID}
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", "", fmt.Errorf("localName[%s]: %w", granule.ConceptID, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", "", fmt.Errorf("localName[%s]: no basename in %s", granule.ConceptID, rawurl)
	}
	return name, rawurl, nil
}

// downloadHTTP streams the url to localPath with progress display every 5%
func downloadHTTP(ctx context.Context, rawurl, localPath, displayPrefix string) error {
	req, err := grab.NewRequest(localPath, rawurl)
	if err != nil {
		return fmt.Errorf("downloadHTTP.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)

	client := grab.NewClient()
	resp := client.Do(req)

	displayProgress(ctx, displayPrefix, resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("downloadHTTP[%s]: %w", rawurl, err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 408, 429, 500, 501, 502, 503, 504:
			return service.MakeTemporary(err)
		default:
			return err
		}
	}
	return nil
}

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}
