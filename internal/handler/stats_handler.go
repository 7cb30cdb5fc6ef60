package handler

import (
	"net/http"
	"strings"

	"gn-registry/internal/model"
	"gn-registry/internal/service"
)

type StatsHandler struct {
	service *service.StatsService
}

func NewStatsHandler(service *service.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard returns the caller's node statistics plus a per-child breakdown.
// An optional node query parameter drills into a descendant jurisdiction.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	report, err := h.service.Report(r.Context(), principal, strings.TrimSpace(r.URL.Query().Get("node")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, report, nil)
}

// Node returns the aggregate statistics for a single jurisdiction without
// the child breakdown.
func (h *StatsHandler) Node(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	stats, err := h.service.Stats(r.Context(), principal, strings.TrimSpace(r.URL.Query().Get("node")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, nil)
}
