// Package server exposes template rendering over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/datasource"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DefaultMaxUpload bounds the size of a request body.
	DefaultMaxUpload = 32 << 20
)

// Server renders templates posted as multipart forms.
type Server struct {
	router    chi.Router
	engine    *wordfill.Engine
	logger    *wordfill.Logger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload sets the request body limit in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// New builds a server around engine. A nil engine uses the default one.
func New(engine *wordfill.Engine, opts ...Option) *Server {
	if engine == nil {
		engine = wordfill.DefaultEngine()
	}
	s := &Server{
		router:    chi.NewRouter(),
		engine:    engine,
		logger:    engine.Logger().WithField("component", "server"),
		maxUpload: DefaultMaxUpload,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Post("/render", s.handleRender)
	s.router.Post("/validate", s.handleValidate)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("%s %s from %s in %s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// handleRender expects a "template" file part and data either as a "data"
// file part (.json, .yaml, .yml) or a "data" form value holding JSON.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	tplFile, _, err := r.FormFile("template")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("template file is required: %w", err))
		return
	}
	defer tplFile.Close()

	data, err := formData(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	tpl, err := s.engine.Prepare(tplFile)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	defer tpl.Close()

	var buf bytes.Buffer
	if err := tpl.RenderTo(r.Context(), &buf, data); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="document.docx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func formData(r *http.Request) (wordfill.Data, error) {
	file, header, err := r.FormFile("data")
	switch {
	case err == nil:
		defer file.Close()
		format, err := datasource.FormatOf(header.Filename)
		if err != nil {
			return nil, err
		}
		return datasource.Decode(file, format, "")
	case errors.Is(err, http.ErrMissingFile):
		raw := r.FormValue("data")
		if raw == "" {
			return wordfill.Data{}, nil
		}
		return datasource.Decode(bytes.NewReader([]byte(raw)), datasource.FormatJSON, "")
	default:
		return nil, fmt.Errorf("read data: %w", err)
	}
}

// handleValidate reads a DOCX template as the raw request body.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	report, err := s.engine.ValidateTemplate(body)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func statusFor(err error) int {
	switch {
	case wordfill.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	case wordfill.IsDocumentError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed (%d): %v", status, err)
	} else {
		s.logger.Warn("request failed (%d): %v", status, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// the grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.logger.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

