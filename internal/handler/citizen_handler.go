package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gn-registry/internal/model"
	"gn-registry/internal/service"
	"gn-registry/pkg/apierror"
)

type CitizenHandler struct {
	service *service.CitizenService
}

func NewCitizenHandler(service *service.CitizenService) *CitizenHandler {
	return &CitizenHandler{service: service}
}

type citizenPayload struct {
	FamilyID     string `json:"family_id"`
	NIC          string `json:"nic"`
	FullName     string `json:"full_name"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	Occupation   string `json:"occupation"`
	Relationship string `json:"relationship"`
}

func (p citizenPayload) toModel() (model.Citizen, error) {
	c := model.Citizen{
		FamilyID:     strings.TrimSpace(p.FamilyID),
		NIC:          strings.TrimSpace(p.NIC),
		FullName:     strings.TrimSpace(p.FullName),
		Gender:       strings.TrimSpace(p.Gender),
		Occupation:   strings.TrimSpace(p.Occupation),
		Relationship: strings.TrimSpace(p.Relationship),
	}

	if raw := strings.TrimSpace(p.DateOfBirth); raw != "" {
		dob, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return model.Citizen{}, apierror.BadRequest("date_of_birth must be YYYY-MM-DD", raw)
		}
		c.DateOfBirth = dob
	}

	return c, nil
}

func (h *CitizenHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	items, meta, err := h.service.List(r.Context(), principal, strings.TrimSpace(q.Get("gn_id")), model.CitizenQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		FamilyID:  strings.TrimSpace(q.Get("family_id")),
		Gender:    strings.TrimSpace(q.Get("gender")),
		Alive:     strings.TrimSpace(q.Get("alive")),
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

func (h *CitizenHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	citizen, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, citizen, nil)
}

func (h *CitizenHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload citizenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	citizen, err := payload.toModel()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), principal, actorFromRequest(r), citizen)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, nil)
}

func (h *CitizenHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload citizenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	citizen, err := payload.toModel()
	if err != nil {
		writeError(w, err)
		return
	}
	citizen.ID = chi.URLParam(r, "id")

	updated, err := h.service.Update(r.Context(), principal, actorFromRequest(r), citizen)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *CitizenHandler) MarkDeceased(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	citizen, err := h.service.MarkDeceased(r.Context(), principal, actorFromRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, citizen, nil)
}
