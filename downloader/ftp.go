package downloader

import (
	"context"
	"fmt"
	"io"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// downloadFTP fetches an ftp:// data URL to localPath. Credentials come from
// the URL userinfo, anonymous otherwise (most data archives serving FTP are
// public).
func downloadFTP(ctx context.Context, u *neturl.URL, localPath string) error {
	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	c, err := ftp.Dial(host, ftp.DialWithTimeout(5*time.Second), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("downloadFTP.Dial: %w", err)
	}
	defer c.Quit()

	user, pword := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pword = p
		}
	}
	if err = c.Login(user, pword); err != nil {
		return fmt.Errorf("downloadFTP.Login: %w", err)
	}

	if size, err := c.FileSize(u.Path); err == nil {
		log.Logger(ctx).Sugar().Debugf("ftp %s: %s", u.Path, fmtBytes(size))
	}

	r, err := c.Retr(u.Path)
	if err != nil {
		return fmt.Errorf("downloadFTP.Retr: %w", err)
	}
	defer r.Close()

	destFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("downloadFTP.Create: %w", err)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, r); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("downloadFTP.Copy: %w", err)
	}
	return nil
}
