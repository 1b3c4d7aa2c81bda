package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/docflow"
	"github.com/aldb-associates/inspection-ingest/internal/model"
	"github.com/aldb-associates/inspection-ingest/internal/pipeline"
	"github.com/aldb-associates/inspection-ingest/internal/store"
)

var servePort int

// ingester and docProcessor narrow the pipeline and flow for the handlers,
// so serve tests can stub them.
type ingester interface {
	Ingest(ctx context.Context, sub model.Submission) (*pipeline.Result, error)
}

type docProcessor interface {
	Process(ctx context.Context, req docflow.Request) (*docflow.Result, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report ingestion HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initFull(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		router := newRouter(env.Pipeline, env.Flow, cfg.Upload.Dir, cfg.Upload.MaxSizeMB)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(ing ingester, docs docProcessor, uploadDir string, maxSizeMB int64) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Report-Num", "X-Email-Recipients"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/reports", handleReports(ing))
	r.Post("/documents", handleDocuments(docs, uploadDir, maxSizeMB))

	return r
}

// requestLogger logs one line per request the way the rest of the service
// logs: structured, through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func handleReports(ing ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub model.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing JSON data"})
			return
		}

		res, err := ing.Ingest(r.Context(), sub)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Data inserted successfully into Database",
				"columns": res.Columns,
			})
		case errors.Is(err, pipeline.ErrMissingPayload):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing JSON data"})
		case errors.Is(err, store.ErrDuplicateReport):
			// Gate rejection: message passthrough, it names the report.
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			zap.L().Error("report ingestion failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}
}

func handleDocuments(docs docProcessor, uploadDir string, maxSizeMB int64) http.HandlerFunc {
	maxBytes := maxSizeMB * 1024 * 1024

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		file, header, err := openUpload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		defer file.Close()

		reportNum := r.Header.Get("X-Report-Num")
		if reportNum == "" {
			reportNum = "Unknown Report Number"
		}
		recipients := parseRecipients(r.Header.Get("X-Email-Recipients"))

		path, err := saveUpload(uploadDir, header.Filename, file)
		if err != nil {
			zap.L().Error("document upload save failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error processing request"})
			return
		}
		defer os.Remove(path)

		res, err := docs.Process(r.Context(), docflow.Request{
			ReportNum:  reportNum,
			FileName:   header.Filename,
			Path:       path,
			Recipients: recipients,
		})
		if err != nil {
			zap.L().Error("document processing failed",
				zap.String("report_num", reportNum), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Error processing request",
				"details": err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "PDF processed successfully",
			"reportNum":   reportNum,
			"fileUrl":     res.FileURL,
			"textLength":  len(res.Text),
			"textPreview": preview(res.Text),
			"emailSent":   res.EmailSent,
		})
	}
}

// openUpload pulls the "file" part from the multipart form and enforces the
// PDF-only policy.
func openUpload(r *http.Request) (io.ReadCloser, *multipartHeader, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, eris.New("No PDF file uploaded")
	}

	isPDF := header.Header.Get("Content-Type") == "application/pdf" ||
		strings.EqualFold(filepath.Ext(header.Filename), ".pdf")
	if !isPDF {
		file.Close()
		return nil, nil, eris.New("Only PDF files are allowed")
	}

	return file, &multipartHeader{Filename: header.Filename}, nil
}

type multipartHeader struct {
	Filename string
}

func saveUpload(dir, originalName string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create upload dir %s", dir)
	}

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(originalName))
	if err != nil {
		return "", eris.Wrap(err, "create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", eris.Wrap(err, "write upload file")
	}
	return dst.Name(), nil
}

func parseRecipients(header string) []string {
	if header == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(header, ",") {
		if email := strings.TrimSpace(part); email != "" {
			out = append(out, email)
		}
	}
	return out
}

func preview(text string) string {
	if len(text) > 500 {
		return text[:500] + "..."
	}
	return text
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
