package main

import (
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insight-cli/internal/fetcher"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a workbook over HTTP or FTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil {
			return eris.Wrapf(err, "parse url %s", args[0])
		}

		dest := fetchOut
		if dest == "" {
			dest = path.Base(u.Path)
			if dest == "." || dest == "/" {
				return eris.Errorf("cannot derive filename from %s, use --out", args[0])
			}
		}

		switch u.Scheme {
		case "http", "https":
			err = fetcher.DownloadHTTP(cmd.Context(), args[0], dest, fetcher.HTTPOptions{
				Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				UserAgent: cfg.Fetch.UserAgent,
			})
		case "ftp":
			err = fetcher.DownloadFTP(args[0], dest, fetcher.FTPOptions{
				Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			})
		default:
			return eris.Errorf("unsupported scheme %q", u.Scheme)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Saved %s\n", dest)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "destination path (default: url basename)")
	rootCmd.AddCommand(fetchCmd)
}
