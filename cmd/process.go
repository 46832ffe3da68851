package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/export"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/pipeline"
	"github.com/sells-group/insight-cli/internal/store"
)

var (
	processGeocode bool
	processOutDir  string
	processFormats []string
)

var processCmd = &cobra.Command{
	Use:   "process <workbook.xlsx>",
	Short: "Run the full analytics pipeline over a workbook",
	Long:  "Validates and decodes the workbook, derives rankings, category spending, and address tenure, optionally geocodes customer addresses, and writes the selected export formats.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var st store.Store
		if processGeocode {
			var err error
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		progress := func(current, total int, address string) {
			fmt.Printf("\rGeocoding %d/%d", current, total)
			if current == total {
				fmt.Println()
			}
		}

		p := buildPipeline(st, processGeocode, pipeline.WithProgress(progress))
		result, err := p.Process(ctx, args[0], processGeocode)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(processOutDir, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", processOutDir)
		}
		if err := writeExports(result, processOutDir, processFormats); err != nil {
			return err
		}

		printSummary(result)
		return nil
	},
}

// writeExports renders the requested formats into dir. Format "all" expands
// to every supported renderer.
func writeExports(result *model.Result, dir string, formats []string) error {
	want := map[string]bool{}
	for _, f := range formats {
		if f == "all" {
			for _, k := range []string{"excel", "csv", "kml", "shapefile", "report"} {
				want[k] = true
			}
			continue
		}
		want[strings.ToLower(f)] = true
	}
	if unknown := unknownFormats(want); len(unknown) > 0 {
		return eris.Errorf("unknown export formats: %s", strings.Join(unknown, ", "))
	}

	writers := []struct {
		format string
		file   string
		write  func(path string) error
	}{
		{"excel", "processed_data.xlsx", func(p string) error { return export.WriteExcel(result, p) }},
		{"csv", "analysis_csv.zip", func(p string) error { return export.WriteCSVZip(result, p) }},
		{"kml", "customer_locations.kml", func(p string) error { return export.WriteKML(result.Customers, p) }},
		{"shapefile", "customer_locations.shp", func(p string) error { return export.WriteShapefile(result.Customers, p) }},
		{"report", "summary_report.yaml", func(p string) error { return export.WriteReport(result, p) }},
	}
	for _, w := range writers {
		if !want[w.format] {
			continue
		}
		path := filepath.Join(dir, w.file)
		if err := w.write(path); err != nil {
			return err
		}
		zap.L().Info("export written", zap.String("format", w.format), zap.String("path", path))
	}
	return nil
}

func unknownFormats(want map[string]bool) []string {
	known := map[string]bool{"excel": true, "csv": true, "kml": true, "shapefile": true, "report": true}
	var unknown []string
	for f := range want {
		if !known[f] {
			unknown = append(unknown, f)
		}
	}
	return unknown
}

func printSummary(result *model.Result) {
	s := result.Summary
	fmt.Printf("Customers:    %d\n", s.TotalCustomers)
	fmt.Printf("Transactions: %d\n", s.TotalTransactions)
	fmt.Printf("Revenue:      $%.2f\n", s.TotalRevenue)
	fmt.Printf("Categories:   %d\n", s.ProductCategories)
	if result.GeoStats != nil {
		fmt.Printf("Geocoded:     %d/%d (%.1f%%)\n",
			result.GeoStats.Geocoded, result.GeoStats.TotalCustomers, result.GeoStats.SuccessRate)
	}
	for _, rec := range result.Recommendations {
		fmt.Printf("[%s] %s\n", rec.Priority, rec.Recommendation)
	}
}

func init() {
	processCmd.Flags().BoolVar(&processGeocode, "geocode", false, "geocode customer addresses")
	processCmd.Flags().StringVar(&processOutDir, "output-dir", "output", "directory for exported files")
	processCmd.Flags().StringSliceVar(&processFormats, "format", []string{"excel", "report"}, "export formats (excel, csv, kml, shapefile, report, all)")
	rootCmd.AddCommand(processCmd)
}
