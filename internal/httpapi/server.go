// Package httpapi binds the job API to HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/jobs"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
)

// OwnerHeader carries the caller identity. Authentication happens upstream.
const OwnerHeader = "X-Owner"

// JobService is the job manager surface served over HTTP.
type JobService interface {
	Create(ctx context.Context, assetID string, params domain.Params, owner string) (string, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	ListRecent(ctx context.Context, owner string, limit int) ([]*domain.Job, error)
	Chapters(ctx context.Context, id string) ([]domain.Chapter, error)
	OpenLogs(ctx context.Context, id string) (io.ReadCloser, error)
	OpenOutput(ctx context.Context, id string) (*jobs.Artifact, error)
	OpenCaptions(ctx context.Context, id string) (*jobs.Artifact, error)
}

// Server is the HTTP front of the job manager.
type Server struct {
	bind   string
	jobs   JobService
	logger logger.Logger

	listener net.Listener
	server   *http.Server
}

// CreateRequest is the body of POST /api/v1/jobs.
type CreateRequest struct {
	AssetID       string `json:"assetId"`
	Style         string `json:"style"`
	Duration      int    `json:"duration"`
	Dialogue      string `json:"dialogue"`
	EncodeProfile string `json:"encodeProfile"`
}

// CreateResponse is returned for an accepted job.
type CreateResponse struct {
	JobID string `json:"jobId"`
}

// ListResponse wraps a job listing.
type ListResponse struct {
	Jobs []*domain.Job `json:"jobs"`
}

// New creates a Server listening on bind once started.
func New(bind string, svc JobService, log logger.Logger) *Server {
	s := &Server{bind: bind, jobs: svc, logger: log}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/jobs", s.handleCreate)
	mux.HandleFunc("GET /api/v1/jobs", s.handleList)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGet)
	mux.HandleFunc("GET /api/v1/jobs/{id}/logs", s.handleLogs)
	mux.HandleFunc("GET /api/v1/jobs/{id}/output", s.handleOutput)
	mux.HandleFunc("GET /api/v1/jobs/{id}/captions", s.handleCaptions)
	mux.HandleFunc("GET /api/v1/jobs/{id}/chapters", s.handleChapters)
	return mux
}

// Start listens and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "API server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info(ctx, "API server listening on %s", listener.Addr().String())
	return nil
}

// Addr is the bound address, useful when bind used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.AssetID) == "" {
		s.writeError(w, http.StatusBadRequest, "assetId is required")
		return
	}

	params := domain.Params{
		Style:         req.Style,
		Duration:      req.Duration,
		Dialogue:      domain.Dialogue(req.Dialogue),
		EncodeProfile: req.EncodeProfile,
	}
	id, err := s.jobs.Create(r.Context(), req.AssetID, params, owner(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, CreateResponse{JobID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := s.jobs.ListRecent(r.Context(), owner(r), limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Job{}
	}
	s.writeJSON(w, http.StatusOK, ListResponse{Jobs: list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.jobs.Chapters(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if chapters == nil {
		chapters = []domain.Chapter{}
	}
	s.writeJSON(w, http.StatusOK, chapters)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	rc, err := s.jobs.OpenLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn(r.Context(), "Streaming logs interrupted: %v", err)
	}
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	art, err := s.jobs.OpenOutput(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer art.Close()
	s.serveArtifact(w, r, art, "video/mp4")
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	art, err := s.jobs.OpenCaptions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer art.Close()
	s.serveArtifact(w, r, art, "text/vtt; charset=utf-8")
}

// serveArtifact lets net/http answer Range requests with 206 and Content-Range.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, art *jobs.Artifact, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, art.Name, art.ModTime, art.File)
}

func owner(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(OwnerHeader)); v != "" {
		return v
	}
	return jobs.DefaultOwner
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jobs.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(context.Background(), "Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
