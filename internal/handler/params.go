package handler

import (
	"net/http"
	"strconv"
	"strings"

	"gn-registry/internal/middleware"
	"gn-registry/internal/model"
	"gn-registry/internal/query"
)

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func principalFromRequest(r *http.Request) (model.Principal, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return model.Principal{}, false
	}
	return claims.Principal(), true
}

// withLinks decorates list metadata with self-describing pagination links
// that preserve the request's filters.
func withLinks(r *http.Request, meta model.Meta) *model.Meta {
	meta.Links = query.Links(r.URL.Path, r.URL.Query(), meta)
	return &meta
}
