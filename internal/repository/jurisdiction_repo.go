package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gn-registry/internal/model"
	"gn-registry/internal/query"
)

type JurisdictionRepository struct {
	pool *pgxpool.Pool
}

func NewJurisdictionRepository(pool *pgxpool.Pool) *JurisdictionRepository {
	return &JurisdictionRepository{pool: pool}
}

const jurisdictionColumns = `id, level, parent_id, office_code, office_name, is_active, created_at, updated_at`

func scanJurisdiction(row pgx.Row) (model.Jurisdiction, error) {
	var j model.Jurisdiction
	var parentID *string
	err := row.Scan(&j.ID, &j.Level, &parentID, &j.OfficeCode, &j.OfficeName,
		&j.IsActive, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return model.Jurisdiction{}, err
	}
	if parentID != nil {
		j.ParentID = *parentID
	}
	return j, nil
}

// Snapshot loads the whole tree in one query. Scope resolution and stats
// rollups operate on this point-in-time copy.
func (r *JurisdictionRepository) Snapshot(ctx context.Context) ([]model.Jurisdiction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+jurisdictionColumns+` FROM jurisdictions ORDER BY level, office_code`)
	if err != nil {
		return nil, fmt.Errorf("load jurisdiction snapshot: %w", err)
	}
	defer rows.Close()

	nodes := make([]model.Jurisdiction, 0, 256)
	for rows.Next() {
		node, scanErr := scanJurisdiction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan jurisdiction: %w", scanErr)
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

func (r *JurisdictionRepository) FindByID(ctx context.Context, id string) (model.Jurisdiction, error) {
	j, err := scanJurisdiction(r.pool.QueryRow(ctx,
		`SELECT `+jurisdictionColumns+` FROM jurisdictions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Jurisdiction{}, model.ErrJurisdictionNotFound
	}
	if err != nil {
		return model.Jurisdiction{}, fmt.Errorf("find jurisdiction by id: %w", err)
	}
	return j, nil
}

func (r *JurisdictionRepository) ExistsByCode(ctx context.Context, level model.Level, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM jurisdictions WHERE level = $1 AND office_code = $2)`,
		level, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check office code exists: %w", err)
	}
	return exists, nil
}

func (r *JurisdictionRepository) Create(ctx context.Context, j model.Jurisdiction) error {
	var parentID *string
	if j.ParentID != "" {
		parentID = &j.ParentID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO jurisdictions (id, level, parent_id, office_code, office_name, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		j.ID, j.Level, parentID, j.OfficeCode, j.OfficeName, j.IsActive, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create jurisdiction: %w", err)
	}
	return nil
}

func (r *JurisdictionRepository) Rename(ctx context.Context, id string, officeName string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE jurisdictions SET office_name = $2, updated_at = $3 WHERE id = $1`,
		id, officeName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rename jurisdiction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJurisdictionNotFound
	}
	return nil
}

func (r *JurisdictionRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE jurisdictions SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set jurisdiction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJurisdictionNotFound
	}
	return nil
}

var jurisdictionFilterSchema = query.Schema{
	"level":  {Column: "level", Op: query.OpEqual, Kind: query.KindText},
	"parent": {Column: "parent_id", Op: query.OpEqual, Kind: query.KindUUID},
	"active": {Column: "is_active", Op: query.OpEqual, Kind: query.KindBool},
	"search": {Columns: []string{"office_code", "office_name"}, Op: query.OpSearch, Kind: query.KindText},
}

var jurisdictionSortColumns = map[string]string{
	"office_code": "office_code",
	"office_name": "office_name",
	"created_at":  "created_at",
}

// List returns a filtered, paginated slice of jurisdiction nodes.
func (r *JurisdictionRepository) List(ctx context.Context, values map[string]string, page int, limit int, sortKey string, direction string) ([]model.Jurisdiction, model.Meta, error) {
	f := query.Compile(jurisdictionFilterSchema, values)

	spec := query.PageSpec{
		Select: `SELECT ` + jurisdictionColumns + ` FROM jurisdictions`,
		Count:  `SELECT COUNT(*) FROM jurisdictions`,
		Sort: query.ResolveSort(jurisdictionSortColumns, sortKey, direction,
			query.Sort{Column: "office_code", Direction: "ASC"}),
		Page:  page,
		Limit: limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.Jurisdiction, error) {
		return scanJurisdiction(rows)
	})
}
