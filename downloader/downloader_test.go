package downloader_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/downloader"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Downloader", func() {
	var (
		srv     *httptest.Server
		destDir string
		d       *downloader.Downloader
		ctx     = context.Background()
	)

	payload := func(name string) []byte {
		return []byte("netcdf-payload-of-" + name)
	}

	granule := func(id, name string) common.Granule {
		return common.Granule{
			ConceptID:    id,
			CollectionID: "C1940473819-POCLOUD",
			RelatedURLs: []common.RelatedURL{
				{URL: srv.URL + "/docs/" + name + ".html", Type: "VIEW RELATED INFORMATION"},
				{URL: srv.URL + "/data/" + name, Type: "GET DATA"},
			},
		}
	}

	BeforeEach(func() {
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := filepath.Base(r.URL.Path)
			w.Write(payload(name))
		}))
		destDir = GinkgoT().TempDir()
		d = &downloader.Downloader{}
	})

	AfterEach(func() {
		srv.Close()
	})

	It("writes the response body verbatim", func() {
		f, err := d.Download(ctx, granule("G1", "20200823-sst.nc"), destDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.LocalPath).To(Equal(filepath.Join(destDir, "20200823-sst.nc")))
		Expect(f.Size).To(BeNumerically(">", 0))

		got, err := os.ReadFile(f.LocalPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(sha256.Sum256(got)).To(Equal(sha256.Sum256(payload("20200823-sst.nc"))))
	})

	It("fails without writing a file when no GET DATA url exists", func() {
		g := common.Granule{ConceptID: "G2", RelatedURLs: []common.RelatedURL{
			{URL: srv.URL + "/docs/readme.html", Type: "VIEW RELATED INFORMATION"},
		}}
		_, err := d.Download(ctx, g, destDir)
		Expect(err).To(MatchError(downloader.ErrNoDownloadableURL{GranuleID: "G2"}))

		entries, err := os.ReadDir(destDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	Describe("DownloadAll", func() {
		It("accumulates per-granule failures without aborting the batch", func() {
			granules := []common.Granule{
				granule("G1", "a.nc"),
				{ConceptID: "G2"}, // no related urls at all
				granule("G3", "b.nc"),
				{ConceptID: "G4", RelatedURLs: []common.RelatedURL{{URL: srv.URL + "/doc", Type: "VIEW RELATED INFORMATION"}}},
				granule("G5", "c.nc"),
			}

			report, err := d.DownloadAll(ctx, granules, destDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Files).To(HaveLen(3))
			// successes preserve input order
			Expect(report.Files[0].GranuleID).To(Equal("G1"))
			Expect(report.Files[1].GranuleID).To(Equal("G3"))
			Expect(report.Files[2].GranuleID).To(Equal("G5"))

			Expect(report.Failures).To(HaveLen(2))
			Expect(report.Failures[0].GranuleID).To(Equal("G2"))
			Expect(report.Failures[1].GranuleID).To(Equal("G4"))
			Expect(report.Err()).To(HaveOccurred())
		})

		It("reports no error when every granule downloads", func() {
			var granules []common.Granule
			for i := 0; i < 5; i++ {
				granules = append(granules, granule(fmt.Sprintf("G%d", i), fmt.Sprintf("file-%d.nc", i)))
			}
			report, err := d.DownloadAll(ctx, granules, destDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Files).To(HaveLen(5))
			Expect(report.Failures).To(BeEmpty())
			Expect(report.Err()).NotTo(HaveOccurred())
		})

		It("produces distinct local files when basenames collide", func() {
			granules := []common.Granule{
				granule("G1", "sst.nc"),
				granule("G2", "sst.nc"),
			}
			report, err := d.DownloadAll(ctx, granules, destDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Files).To(HaveLen(2))
			Expect(report.Files[0].LocalPath).NotTo(Equal(report.Files[1].LocalPath))
		})

		It("bounds parallel transfers", func() {
			d.Jobs = 3
			var granules []common.Granule
			for i := 0; i < 10; i++ {
				granules = append(granules, granule(fmt.Sprintf("G%d", i), fmt.Sprintf("par-%d.nc", i)))
			}
			report, err := d.DownloadAll(ctx, granules, destDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Files).To(HaveLen(10))
		})
	})
})
