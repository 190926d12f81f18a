package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/store"
)

// ReportSource serves the most recent analysis report.
type ReportSource interface {
	Latest() (*analysis.Report, bool)
}

// ObservationSource serves the most recent stored observation of a district.
type ObservationSource interface {
	Latest(districtID string) (domain.DistrictObservation, error)
}

// Deps are the collaborators behind the query endpoints.
type Deps struct {
	Ready        sharedobs.ReadinessChecker
	Reports      ReportSource
	Observations ObservationSource
	Registry     *geo.Registry
}

// Server exposes health, readiness, metrics and read-only analysis endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 query routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/reports/latest", s.handleLatestReport)
	mux.HandleFunc("GET /v1/districts", s.handleDistricts)
	mux.HandleFunc("GET /v1/districts/{id}/neighbors", s.handleNeighbors)
	mux.HandleFunc("GET /v1/districts/{id}/attribution", s.handleAttribution)
	mux.HandleFunc("GET /v1/districts/{id}/latest", s.handleLatestObservation)
	mux.HandleFunc("POST /v1/registry/reload", s.handleRegistryReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.deps.Reports.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no report produced yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleDistricts(w http.ResponseWriter, _ *http.Request) {
	ix, ok := s.index(w)
	if !ok {
		return
	}
	locs := make([]domain.DistrictLocation, 0, ix.Len())
	for _, id := range ix.IDs() {
		loc, _ := ix.Location(id)
		locs = append(locs, loc)
	}
	sharedobs.WriteJSON(w, http.StatusOK, locs)
}

type neighborView struct {
	geo.Neighbor
	BearingDegrees float64 `json:"bearing_degrees"`
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	ix, ok := s.index(w)
	if !ok {
		return
	}
	id := r.PathValue("id")

	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	neighbors, err := ix.Neighbors(id, k)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]neighborView, len(neighbors))
	for i, n := range neighbors {
		bearing, _ := ix.Bearing(id, n.DistrictID)
		out[i] = neighborView{Neighbor: n, BearingDegrees: bearing}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleAttribution(w http.ResponseWriter, r *http.Request) {
	ix, ok := s.index(w)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !ix.Contains(id) {
		s.writeDomainError(w, domain.UnknownDistrict(id))
		return
	}
	report, ok := s.deps.Reports.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no report produced yet")
		return
	}
	scores := report.Attribution(id)
	if scores == nil {
		writeError(w, http.StatusNotFound, "district not covered by latest report")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, analysis.DistrictAttribution{DistrictID: id, Scores: scores})
}

func (s *Server) handleLatestObservation(w http.ResponseWriter, r *http.Request) {
	obs, err := s.deps.Observations.Latest(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, obs)
}

// handleRegistryReload rebuilds the district index from its source. A failed
// reload leaves the previous index serving.
func (s *Server) handleRegistryReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.deps.Registry.Reload(); err != nil {
		s.logger.Error("district registry reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registry reload failed")
		return
	}
	ix, ok := s.index(w)
	if !ok {
		return
	}
	s.logger.Info("district registry reloaded", "districts", ix.Len())
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "districts": ix.Len()})
}

func (s *Server) index(w http.ResponseWriter) (*geo.Index, bool) {
	ix, err := s.deps.Registry.Index()
	if err != nil {
		s.logger.Error("district registry unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "district registry unavailable")
		return nil, false
	}
	return ix, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnknownDistrict) || errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
