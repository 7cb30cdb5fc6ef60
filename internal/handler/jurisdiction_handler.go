package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gn-registry/internal/model"
	"gn-registry/internal/scope"
	"gn-registry/internal/service"
	"gn-registry/pkg/apierror"
)

type JurisdictionHandler struct {
	service *service.JurisdictionService
}

func NewJurisdictionHandler(service *service.JurisdictionService) *JurisdictionHandler {
	return &JurisdictionHandler{service: service}
}

type treeNode struct {
	model.Jurisdiction
	Children []treeNode `json:"children,omitempty"`
}

func buildSubtree(tree *scope.Tree, id string) (treeNode, bool) {
	node, ok := tree.Node(id)
	if !ok {
		return treeNode{}, false
	}

	out := treeNode{Jurisdiction: node}
	for _, child := range tree.Children(id) {
		sub, ok := buildSubtree(tree, child.ID)
		if !ok {
			continue
		}
		out.Children = append(out.Children, sub)
	}

	return out, true
}

// Tree returns the hierarchy rooted at the caller's home jurisdiction.
func (h *JurisdictionHandler) Tree(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	tree, sc, err := h.service.ResolveScope(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	root, ok := buildSubtree(tree, sc.HomeID())
	if !ok {
		writeError(w, model.ErrJurisdictionNotFound)
		return
	}

	writeSuccess(w, http.StatusOK, root, nil)
}

func (h *JurisdictionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, meta, err := h.service.List(r.Context(), map[string]string{
		"level":  strings.TrimSpace(q.Get("level")),
		"parent": strings.TrimSpace(q.Get("parent")),
		"active": strings.TrimSpace(q.Get("active")),
		"search": strings.TrimSpace(q.Get("search")),
	},
		parseIntOrDefault(q.Get("page"), 1),
		parseIntOrDefault(q.Get("limit"), 0),
		strings.TrimSpace(q.Get("sort")),
		strings.TrimSpace(q.Get("direction")),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, withLinks(r, meta))
}

func (h *JurisdictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	node, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, node, nil)
}

func (h *JurisdictionHandler) Children(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromRequest(r)
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	children, err := h.service.Children(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, children, nil)
}

func (h *JurisdictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		ParentID   string `json:"parent_id"`
		Level      string `json:"level"`
		OfficeCode string `json:"office_code"`
		OfficeName string `json:"office_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	node, err := h.service.Create(r.Context(), actorFromRequest(r),
		payload.ParentID, payload.Level, payload.OfficeCode, payload.OfficeName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, node, nil)
}

func (h *JurisdictionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		OfficeName string `json:"office_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	node, err := h.service.Rename(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), payload.OfficeName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, node, nil)
}

func (h *JurisdictionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Active == nil {
		writeError(w, apierror.New("BAD_REQUEST", "active flag is required", "active", http.StatusBadRequest))
		return
	}

	node, err := h.service.SetStatus(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), *payload.Active)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, node, nil)
}
