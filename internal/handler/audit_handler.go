package handler

import (
	"net/http"
	"strings"

	"gn-registry/internal/model"
	"gn-registry/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, meta, err := h.service.List(r.Context(), model.AuditQuery{
		ActionType: strings.TrimSpace(q.Get("action")),
		TableName:  strings.TrimSpace(q.Get("table")),
		UserID:     strings.TrimSpace(q.Get("user_id")),
		Search:     strings.TrimSpace(q.Get("search")),
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
		Sort:       strings.TrimSpace(q.Get("sort")),
		Direction:  strings.TrimSpace(q.Get("direction")),
		Page:       parseIntOrDefault(q.Get("page"), 1),
		Limit:      parseIntOrDefault(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, withLinks(r, meta))
}
