package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/domain"
	apimw "github.com/hamed0406/watchdog/internal/httpapi/middleware"
)

// StatusSource is the read-only view of the monitoring loop.
type StatusSource interface {
	CurrentStatus() domain.ResourceStatus
	RuntimeSnapshot() domain.RuntimeSnapshot
}

// ConfigSource is the part of config.Store the API needs.
type ConfigSource interface {
	Snapshot() config.Snapshot
	Reload(ctx context.Context) error
}

type Server struct {
	Logger    *zap.Logger
	Status    StatusSource
	Config    ConfigSource
	Gatherer  prometheus.Gatherer
	Version   string
	StartedAt time.Time
}

func NewServer(l *zap.Logger, st StatusSource, cfg ConfigSource, g prometheus.Gatherer, version string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{
		Logger:    l,
		Status:    st,
		Config:    cfg,
		Gatherer:  g,
		Version:   version,
		StartedAt: time.Now().UTC(),
	}
}

func (s *Server) Router(keys apimw.Keys, ratePerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(apimw.RequestID)
	r.Use(apimw.Logging(s.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(apimw.RateLimit(ratePerMin, burst))

		api.Group(func(pub chi.Router) {
			pub.Use(apimw.RequireAny(keys))
			pub.Get("/info", s.handleInfo)
			pub.Get("/status", s.handleStatus)
			pub.Get("/state", s.handleState)
			pub.Get("/destinations", s.handleDestinations)
		})

		api.Group(func(adm chi.Router) {
			adm.Use(apimw.RequireAdmin(keys))
			adm.Post("/reload", s.handleReload)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type infoResponse struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{Version: s.Version, StartedAt: s.StartedAt})
}

type statusResponse struct {
	Status     domain.ResourceStatus `json:"status"`
	LastChange *time.Time            `json:"last_change,omitempty"`
	Resource   string                `json:"resource"`
	Address    string                `json:"address"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Status.RuntimeSnapshot()
	pc := s.Config.Snapshot().Probe

	resp := statusResponse{
		Status:   snap.Status,
		Resource: pc.ResourceName,
		Address:  pc.ResourceAddr,
	}
	if !snap.LastChange.IsZero() {
		lc := snap.LastChange
		resp.LastChange = &lc
	}
	writeJSON(w, http.StatusOK, resp)
}

type stateResponse struct {
	domain.RuntimeSnapshot
	// MissingMessages lists configured destinations without a live status message.
	MissingMessages []domain.DestinationID `json:"missing_messages"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.Status.RuntimeSnapshot()
	missing := []domain.DestinationID{}
	for _, d := range s.Config.Snapshot().Destinations {
		if _, ok := snap.Messages[d.ID]; !ok {
			missing = append(missing, d.ID)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	writeJSON(w, http.StatusOK, stateResponse{RuntimeSnapshot: snap, MissingMessages: missing})
}

type destinationView struct {
	domain.Destination
	StatusMessage domain.MessageID `json:"status_message,omitempty"`
}

func (s *Server) handleDestinations(w http.ResponseWriter, r *http.Request) {
	snap := s.Status.RuntimeSnapshot()
	dests := s.Config.Snapshot().Destinations
	out := make([]destinationView, 0, len(dests))
	for _, d := range dests {
		out = append(out, destinationView{Destination: d, StatusMessage: snap.Messages[d.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Reload(r.Context()); err != nil {
		s.Logger.Warn("api_reload_failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.Logger.Info("api_reload_ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
