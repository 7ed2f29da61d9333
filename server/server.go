// Package server exposes the batch conversion as an HTTP upload service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openjournals/ojs-pubmed/pipeline"
)

// DefaultMaxUploadBytes bounds the multipart body of a convert request.
const DefaultMaxUploadBytes = 32 << 20

// FormField is the multipart field holding the article files.
const FormField = "files"

// Response headers set by the convert endpoint.
const (
	HeaderRunID     = "X-Run-ID"
	HeaderSucceeded = "X-Articles-Succeeded"
	HeaderFailed    = "X-Articles-Failed"
)

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the conversion HTTP service.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	batch      *pipeline.Batch
	gatherer   prometheus.Gatherer
	maxUpload  int64
	shutdown   time.Duration
	logger     zerolog.Logger
}

// New creates a server that converts uploads with p. A nil gatherer leaves
// /metrics unrouted.
func New(cfg Config, p *pipeline.Pipeline, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		batch:     pipeline.NewBatch(p),
		gatherer:  gatherer,
		maxUpload: cfg.MaxUploadBytes,
		shutdown:  cfg.ShutdownTimeout,
		logger:    logger.With().Str("component", "http-server").Logger(),
	}
	s.router = s.buildRouter()

	// WriteTimeout stays zero by default: a batch waits on OJS for every file.
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/v1/convert", s.convertHandler)

	return r
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully, waiting at most ShutdownTimeout for running conversions.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Dur("timeout", s.shutdown).Msg("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return <-errCh
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type convertErrorResponse struct {
	Error  string           `json:"error"`
	Report *pipeline.Report `json:"report,omitempty"`
}

// convertHandler runs one batch over the uploaded files. The response is the
// ArticleSet, or the report as JSON when ?report=1 is set.
func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()

	items, status, err := s.readUpload(w, r)
	if err != nil {
		log.Warn().Err(err).Msg("rejected upload")
		writeError(w, status, err.Error())
		return
	}

	coll, report, err := s.batch.Run(r.Context(), items)
	if err != nil {
		// The client went away; nobody reads the response.
		log.Warn().Err(err).Str("run_id", report.RunID).Msg("conversion cancelled")
		return
	}

	w.Header().Set(HeaderRunID, report.RunID)
	w.Header().Set(HeaderSucceeded, strconv.Itoa(len(report.Succeeded)))
	w.Header().Set(HeaderFailed, strconv.Itoa(len(report.Failed)))

	if wantReport(r) {
		writeJSON(w, http.StatusOK, report)
		return
	}
	if len(report.Succeeded) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, convertErrorResponse{
			Error:  "no article could be converted",
			Report: report,
		})
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="articleset.xml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := coll.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("writing collection")
	}
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]pipeline.Item, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.maxUpload)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[FormField]
	if len(headers) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("no files in form field %q", FormField)
	}

	items := make([]pipeline.Item, 0, len(headers))
	seen := make(map[string]bool, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("opening %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("reading %s: %w", fh.Filename, err)
		}
		items = append(items, pipeline.Item{Name: uniqueName(seen, filepath.Base(fh.Filename)), Data: data})
	}
	return items, http.StatusOK, nil
}

// uniqueName returns name, or name with a "-2", "-3", ... suffix before the
// extension when an earlier upload already used it.
func uniqueName(seen map[string]bool, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; seen[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	seen[candidate] = true
	return candidate
}

func wantReport(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("report"))
	return err == nil && v
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
