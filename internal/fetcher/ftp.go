package fetcher

import (
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
)

// FTPOptions configures the FTP downloader.
type FTPOptions struct {
	Timeout time.Duration
}

// DownloadFTP fetches a remote workbook over FTP into destPath. Anonymous
// login is used unless the URL carries credentials.
func DownloadFTP(rawURL, destPath string, opts FTPOptions) error {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	host, path, user, pass, err := parseFTPURL(rawURL)
	if err != nil {
		return err
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(opts.Timeout))
	if err != nil {
		return eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(user, pass); err != nil {
		return eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: ftp retrieve %s", path)
	}
	defer resp.Close() //nolint:errcheck

	return writeToFile(resp, destPath, rawURL)
}

// parseFTPURL extracts host (with port), path, and credentials from an FTP URL.
func parseFTPURL(rawURL string) (host, path, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", "", "", eris.New("fetcher: empty path in ftp url")
	}

	user, pass = "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	return host, u.Path, user, pass, nil
}
