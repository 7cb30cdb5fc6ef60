package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gn-registry/internal/model"
	"gn-registry/internal/service"
	"gn-registry/pkg/apierror"
)

type TransferHandler struct {
	service *service.TransferService
}

func NewTransferHandler(service *service.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	items, meta, err := h.service.List(r.Context(), principal, model.TransferQuery{
		Status:    strings.TrimSpace(q.Get("status")),
		FamilyID:  strings.TrimSpace(q.Get("family_id")),
		ToGNID:    strings.TrimSpace(q.Get("to_gn_id")),
		From:      strings.TrimSpace(q.Get("from")),
		To:        strings.TrimSpace(q.Get("to")),
		Sort:      strings.TrimSpace(q.Get("sort")),
		Direction: strings.TrimSpace(q.Get("direction")),
		Page:      parseIntOrDefault(q.Get("page"), 1),
		Limit:     parseIntOrDefault(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, withLinks(r, meta))
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	transfer, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transfer, nil)
}

func (h *TransferHandler) Request(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload struct {
		FamilyID string `json:"family_id"`
		ToGNID   string `json:"to_gn_id"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	transfer, err := h.service.Request(r.Context(), principal, actorFromRequest(r),
		payload.FamilyID, payload.ToGNID, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, transfer, nil)
}

func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *TransferHandler) decide(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, principal model.Principal, actor model.AuditActor, id string, remarks string) (model.Transfer, error)) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload struct {
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	transfer, err := decide(r.Context(), principal, actorFromRequest(r), chi.URLParam(r, "id"), payload.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transfer, nil)
}
