package status

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/savewarden/savewarden/agent/internal/retention"
	"github.com/savewarden/savewarden/agent/internal/stats"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	WatchDir  string `json:"watch_dir"`
	BackupDir string `json:"backup_dir"`
	Backups   int    `json:"backups"`
	Clients   int    `json:"clients"`
	Uptime    string `json:"uptime"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the /api/v1/*, /metrics and /ws/events routes.
type Handler struct {
	store    *retention.Store
	counters *stats.Counters
	hub      *Hub
	started  time.Time
	mux      *http.ServeMux
}

// NewHandler wires the routes to store, counters and hub.
func NewHandler(store *retention.Store, counters *stats.Counters, hub *Hub) http.Handler {
	h := &Handler{
		store:    store,
		counters: counters,
		hub:      hub,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/backups", h.backups)
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/metrics", h.metrics)
	h.mux.Handle("/ws/events", hub)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /api/v1/health. A backup directory that cannot be read
// reports "degraded".
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:    "ok",
		WatchDir:  h.store.WatchDir(),
		BackupDir: h.store.BackupDir(),
		Clients:   h.hub.Count(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	entries, err := h.store.List()
	if err != nil {
		resp.Status = "degraded"
	}
	resp.Backups = len(entries)
	jsonResp(w, http.StatusOK, resp)
}

// backups returns GET /api/v1/backups, optionally filtered by ?key=.
func (h *Handler) backups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := h.store.List()
	if err != nil {
		slog.Warn("status: list backups", "err", err)
		jsonErr(w, http.StatusInternalServerError, "cannot read backup directory")
		return
	}

	key, filter := r.URL.Query()["key"]
	out := make([]retention.Entry, 0, len(entries))
	for _, e := range entries {
		if filter && (!e.Info.HasKey || string(e.Info.SessionKey) != key[0]) {
			continue
		}
		out = append(out, e)
	}
	jsonResp(w, http.StatusOK, out)
}

// stats returns GET /api/v1/stats.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.counters.Summary())
}

// metrics returns GET /metrics in the Prometheus text format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if err := h.counters.WriteText(w); err != nil {
		slog.Warn("status: write metrics", "err", err)
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
