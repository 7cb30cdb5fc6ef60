package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"gn-registry/internal/model"
)

// DefaultPageSize is used when the request supplies no usable limit.
const DefaultPageSize = 25

var allowedPageSizes = map[int]struct{}{10: {}, 25: {}, 50: {}, 100: {}}

// NormalizePage clamps the 1-based page number.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// NormalizePageSize restricts the page size to the allow-list; anything else
// falls back to the default rather than erroring.
func NormalizePageSize(size int) int {
	if _, ok := allowedPageSizes[size]; ok {
		return size
	}
	return DefaultPageSize
}

// TotalPages is ceil(total/size), zero when the filtered set is empty.
func TotalPages(total int, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Sort is a resolved ORDER BY target.
type Sort struct {
	Column    string
	Direction string // "ASC" or "DESC"
}

func (s Sort) OrderBy() string {
	return s.Column + " " + s.Direction
}

// ResolveSort maps a client-supplied sort key onto the allow-list for a query
// shape. Unknown keys fall back to the default sort instead of erroring.
func ResolveSort(allowed map[string]string, requested string, direction string, fallback Sort) Sort {
	column, ok := allowed[strings.TrimSpace(requested)]
	if !ok {
		return fallback
	}

	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(direction), "desc") {
		dir = "DESC"
	}

	return Sort{Column: column, Direction: dir}
}

// Querier is the subset of pgxpool.Pool the executor needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PageSpec describes one paginated query shape: select list with joins,
// minimal count statement, resolved sort, and page coordinates.
type PageSpec struct {
	Select string // "SELECT cols FROM table [joins]", no WHERE/ORDER BY
	Count  string // "SELECT COUNT(*) FROM table [joins filtering needs]"
	Sort   Sort
	Page   int
	Limit  int
}

// Paginate runs exactly two queries: a COUNT over the filtered set, then the
// ordered page with LIMIT/OFFSET. A page past the end returns an empty row
// set with the correct total.
func Paginate[T any](ctx context.Context, db Querier, spec PageSpec, f *Filter, scan func(rows pgx.Rows) (T, error)) ([]T, model.Meta, error) {
	page := NormalizePage(spec.Page)
	limit := NormalizePageSize(spec.Limit)

	where, args := f.Clause()

	var total int
	countSQL := strings.TrimSpace(spec.Count + " " + where)
	if err := db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count rows: %w", err)
	}

	meta := model.Meta{Page: page, Limit: limit, Total: total, TotalPages: TotalPages(total, limit)}

	offset := (page - 1) * limit
	next := len(args) + 1
	dataSQL := fmt.Sprintf("%s %s ORDER BY %s LIMIT $%d OFFSET $%d",
		spec.Select, where, spec.Sort.OrderBy(), next, next+1)
	dataArgs := append(args, limit, offset)

	rows, err := db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query page: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0, limit)
	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, model.Meta{}, fmt.Errorf("scan row: %w", scanErr)
		}
		items = append(items, item)
	}

	return items, meta, rows.Err()
}
