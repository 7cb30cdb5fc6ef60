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

type FamilyHandler struct {
	service *service.FamilyService
}

func NewFamilyHandler(service *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{service: service}
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	items, meta, err := h.service.List(r.Context(), principal, model.FamilyQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		GNID:      strings.TrimSpace(q.Get("gn_id")),
		Active:    strings.TrimSpace(q.Get("active")),
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

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, detail, nil)
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload struct {
		GNID        string `json:"gn_id"`
		HouseholdNo string `json:"household_no"`
		Address     string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	family, err := h.service.Create(r.Context(), principal, actorFromRequest(r),
		payload.GNID, payload.HouseholdNo, payload.Address)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, family, nil)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload struct {
		HouseholdNo string `json:"household_no"`
		Address     string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	family, err := h.service.Update(r.Context(), principal, actorFromRequest(r),
		chi.URLParam(r, "id"), payload.HouseholdNo, payload.Address)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, family, nil)
}

func (h *FamilyHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Active == nil {
		writeError(w, apierror.New("BAD_REQUEST", "active flag is required", "active", http.StatusBadRequest))
		return
	}

	family, err := h.service.SetStatus(r.Context(), principal, actorFromRequest(r),
		chi.URLParam(r, "id"), *payload.Active)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, family, nil)
}
