package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/trackstats/internal/config"
	"github.com/gyaneshwarpardhi/trackstats/internal/engine"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/reports", h.listReports)
	h.mux.HandleFunc("POST /v1/reports/{id}/run", h.runReport)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

type reportInfo struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Description string   `json:"description,omitempty"`
	Identities  []string `json:"identities"`
}

// GET /v1/reports: list configured reports.
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	cfg := h.eng.Config()
	out := make([]reportInfo, 0, len(cfg.Reports))
	for _, rd := range cfg.Reports {
		out = append(out, reportInfo{ID: rd.ID, Kind: rd.Kind, Description: rd.Description, Identities: rd.Identities})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"reports": out,
	})
}

// POST /v1/reports/{id}/run: run a report synchronously.
// A failed run answers 502 with whatever identities completed.
func (h *Handler) runReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	opts := engine.RunOptions{KeepEntities: r.URL.Query().Get("verbose") == "true"}

	rep, err := h.eng.Run(r.Context(), id, opts)
	switch {
	case errors.Is(err, engine.ErrUnknownReport):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  err.Error(),
			"report": rep,
		})
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

// POST /v1/config/reload: hot-reload reports from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapConfig(cfg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"reports_count": len(cfg.Reports),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
