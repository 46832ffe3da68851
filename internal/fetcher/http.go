package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// HTTPOptions configures the HTTP downloader.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client
}

// DownloadHTTP fetches a remote workbook over HTTP(S) into destPath.
func DownloadHTTP(ctx context.Context, rawURL, destPath string, opts HTTPOptions) error {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "fetcher: build request")
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fetcher: %s returned status %d", rawURL, resp.StatusCode)
	}

	return writeToFile(resp.Body, destPath, rawURL)
}

func writeToFile(r io.Reader, destPath, source string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", destPath)
	}
	defer f.Close() //nolint:errcheck

	n, err := io.Copy(f, r)
	if err != nil {
		return eris.Wrapf(err, "fetcher: write %s", destPath)
	}

	zap.L().Info("fetcher: downloaded workbook",
		zap.String("source", source),
		zap.String("dest", destPath),
		zap.Int64("bytes", n),
	)
	return nil
}
