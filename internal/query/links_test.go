package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"gn-registry/internal/model"
)

func TestPageLink_PreservesFilters(t *testing.T) {
	params := url.Values{}
	params.Set("search", "perera")
	params.Set("active", "true")
	params.Set("page", "3")

	link := PageLink("/api/v1/families", params, 4)

	assert.Equal(t, "/api/v1/families?active=true&page=4&search=perera", link)
	// The caller's values are untouched.
	assert.Equal(t, "3", params.Get("page"))
}

func TestWithoutFilter_DropsKeyAndResetsPage(t *testing.T) {
	params := url.Values{}
	params.Set("search", "colombo")
	params.Set("ip_address", "10.0.0.1")
	params.Set("page", "5")

	link := WithoutFilter("/api/v1/audit", params, "ip_address")

	assert.Equal(t, "/api/v1/audit?page=1&search=colombo", link)
}

func TestLinks(t *testing.T) {
	params := url.Values{}
	params.Set("active", "true")

	t.Run("middle page has prev and next", func(t *testing.T) {
		links := Links("/api/v1/families", params, model.Meta{Page: 2, TotalPages: 4})

		assert.Equal(t, "/api/v1/families?active=true&page=2", links.Self)
		assert.Equal(t, "/api/v1/families?active=true&page=1", links.First)
		assert.Equal(t, "/api/v1/families?active=true&page=1", links.Prev)
		assert.Equal(t, "/api/v1/families?active=true&page=3", links.Next)
		assert.Equal(t, "/api/v1/families?active=true&page=4", links.Last)
	})

	t.Run("first page has no prev", func(t *testing.T) {
		links := Links("/api/v1/families", params, model.Meta{Page: 1, TotalPages: 4})
		assert.Empty(t, links.Prev)
		assert.NotEmpty(t, links.Next)
	})

	t.Run("last page has no next", func(t *testing.T) {
		links := Links("/api/v1/families", params, model.Meta{Page: 4, TotalPages: 4})
		assert.NotEmpty(t, links.Prev)
		assert.Empty(t, links.Next)
	})

	t.Run("empty set still links to page one", func(t *testing.T) {
		links := Links("/api/v1/families", params, model.Meta{Page: 1, TotalPages: 0})
		assert.Equal(t, "/api/v1/families?active=true&page=1", links.Last)
		assert.Empty(t, links.Next)
	})

	t.Run("each filter gets a removal link, paging params do not", func(t *testing.T) {
		params := url.Values{}
		params.Set("active", "true")
		params.Set("search", "perera")
		params.Set("page", "2")
		params.Set("sort", "created_at")

		links := Links("/api/v1/families", params, model.Meta{Page: 2, TotalPages: 4})

		assert.Equal(t, "/api/v1/families?active=true&page=1&sort=created_at", links.Without["search"])
		assert.Equal(t, "/api/v1/families?page=1&search=perera&sort=created_at", links.Without["active"])
		assert.NotContains(t, links.Without, "page")
		assert.NotContains(t, links.Without, "sort")
	})
}
