package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/export"
	"github.com/sells-group/insight-cli/internal/ingest"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/store"
)

var servePort int

// server holds the shared state of the upload API: the persistence backend
// and the result of the most recent processed upload.
type server struct {
	st store.Store

	mu     sync.RWMutex
	latest *model.Result
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workbook upload and export server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
			return eris.Wrapf(err, "create upload dir %s", cfg.Server.UploadDir)
		}

		s := &server{st: st}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{cfg.Server.AllowedOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", s.handleHealth)
		r.Post("/upload", s.handleUpload)
		r.Get("/uploads", s.handleUploads)
		r.Get("/download/{format}", s.handleDownload)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part in the request"})
		return
	}
	defer file.Close()

	if filepath.Ext(header.Filename) != ".xlsx" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only .xlsx files are supported"})
		return
	}

	id := uuid.New().String()
	savedPath := filepath.Join(cfg.Server.UploadDir, id+".xlsx")
	out, err := os.Create(savedPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save upload"})
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save upload"})
		return
	}
	out.Close()

	geocodeEnabled, _ := strconv.ParseBool(r.URL.Query().Get("geocode"))

	p := buildPipeline(s.st, geocodeEnabled)
	result, err := p.Process(r.Context(), savedPath, geocodeEnabled)
	if err != nil {
		if verr, ok := err.(*ingest.ValidationError); ok {
			writeJSON(w, http.StatusBadRequest, verr)
			return
		}
		zap.L().Error("upload processing failed", zap.String("file", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Processing failed"})
		return
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	entry := &store.UploadLog{
		ID:                id,
		UploadedAt:        time.Now().UTC(),
		Filename:          header.Filename,
		TransactionsCount: len(result.Transactions),
		CustomersCount:    len(result.Customers),
		ProductsCount:     len(result.Products),
		FilePath:          savedPath,
	}
	if err := s.st.LogUpload(r.Context(), entry); err != nil {
		zap.L().Warn("failed to record upload", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id":       id,
		"summary":         result.Summary,
		"segments":        result.Rankings.Summary.SegmentCounts,
		"recommendations": result.Recommendations,
	})
}

func (s *server) handleUploads(w http.ResponseWriter, r *http.Request) {
	entries, err := s.st.ListUploads(r.Context(), 50)
	if err != nil {
		zap.L().Error("list uploads failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list uploads"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	result := s.latest
	s.mu.RUnlock()
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No processed data available. Upload a workbook first."})
		return
	}

	format := chi.URLParam(r, "format")
	var (
		filename string
		render   func(path string) error
	)
	switch format {
	case "excel":
		filename = "processed_data.xlsx"
		render = func(p string) error { return export.WriteExcel(result, p) }
	case "csv":
		filename = "analysis_csv.zip"
		render = func(p string) error { return export.WriteCSVZip(result, p) }
	case "kml":
		filename = "customer_locations.kml"
		render = func(p string) error { return export.WriteKML(result.Customers, p) }
	case "report":
		filename = "summary_report.yaml"
		render = func(p string) error { return export.WriteReport(result, p) }
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Unknown format %q", format)})
		return
	}

	path := filepath.Join(cfg.Server.UploadDir, filename)
	if err := render(path); err != nil {
		zap.L().Error("export failed", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Export failed"})
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
