package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gn-registry/internal/model"
	"gn-registry/internal/service"
	"gn-registry/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, meta, err := h.service.List(r.Context(), model.UserQuery{
		Search:         strings.TrimSpace(q.Get("search")),
		Role:           strings.TrimSpace(q.Get("role")),
		JurisdictionID: strings.TrimSpace(q.Get("jurisdiction_id")),
		Active:         strings.TrimSpace(q.Get("active")),
		Sort:           strings.TrimSpace(q.Get("sort")),
		Direction:      strings.TrimSpace(q.Get("direction")),
		Page:           parseIntOrDefault(q.Get("page"), 1),
		Limit:          parseIntOrDefault(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, withLinks(r, meta))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Role           string `json:"role"`
		JurisdictionID string `json:"jurisdiction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.UpdateAssignment(r.Context(), actorFromRequest(r),
		chi.URLParam(r, "id"), payload.Role, payload.JurisdictionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Active == nil {
		writeError(w, apierror.New("BAD_REQUEST", "active flag is required", "active", http.StatusBadRequest))
		return
	}

	if err := h.service.SetStatus(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), *payload.Active); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"updated": true}, nil)
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if err := h.service.ResetPassword(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), payload.Password); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"reset": true}, nil)
}
