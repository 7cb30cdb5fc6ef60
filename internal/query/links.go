package query

import (
	"net/url"
	"strconv"

	"gn-registry/internal/model"
)

// PageLink rebuilds the request URL with only the page parameter replaced,
// preserving every active filter. Following a generated link reproduces the
// same filtered set.
func PageLink(path string, params url.Values, page int) string {
	cloned := cloneValues(params)
	cloned.Set("page", strconv.Itoa(page))
	return path + "?" + cloned.Encode()
}

// WithoutFilter removes one filter parameter, keeps the rest, and resets the
// page to 1, since the old page offset is meaningless for the new set.
func WithoutFilter(path string, params url.Values, key string) string {
	cloned := cloneValues(params)
	cloned.Del(key)
	cloned.Set("page", "1")
	return path + "?" + cloned.Encode()
}

// Links derives the navigation block for a result page.
func Links(path string, params url.Values, meta model.Meta) *model.PageLinks {
	last := meta.TotalPages
	if last < 1 {
		last = 1
	}

	links := &model.PageLinks{
		Self:  PageLink(path, params, meta.Page),
		First: PageLink(path, params, 1),
		Last:  PageLink(path, params, last),
	}
	if meta.Page > 1 {
		links.Prev = PageLink(path, params, meta.Page-1)
	}
	if meta.Page < meta.TotalPages {
		links.Next = PageLink(path, params, meta.Page+1)
	}

	for key := range params {
		if pagingParams[key] {
			continue
		}
		if links.Without == nil {
			links.Without = make(map[string]string)
		}
		links.Without[key] = WithoutFilter(path, params, key)
	}

	return links
}

var pagingParams = map[string]bool{
	"page":      true,
	"limit":     true,
	"sort":      true,
	"direction": true,
}

func cloneValues(params url.Values) url.Values {
	cloned := make(url.Values, len(params))
	for key, values := range params {
		cloned[key] = append([]string(nil), values...)
	}
	return cloned
}
