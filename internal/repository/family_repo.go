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

type FamilyRepository struct {
	pool *pgxpool.Pool
}

func NewFamilyRepository(pool *pgxpool.Pool) *FamilyRepository {
	return &FamilyRepository{pool: pool}
}

const familyColumns = `id, gn_id, household_no, address, member_count, is_active, created_at, updated_at`

func scanFamily(row pgx.Row) (model.Family, error) {
	var f model.Family
	err := row.Scan(&f.ID, &f.GNID, &f.HouseholdNo, &f.Address,
		&f.MemberCount, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *FamilyRepository) FindByID(ctx context.Context, id string) (model.Family, error) {
	f, err := scanFamily(r.pool.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Family{}, model.ErrFamilyNotFound
	}
	if err != nil {
		return model.Family{}, fmt.Errorf("find family by id: %w", err)
	}
	return f, nil
}

var familyFilterSchema = query.Schema{
	"search": {Columns: []string{"household_no", "address"}, Op: query.OpSearch, Kind: query.KindText},
	"active": {Column: "is_active", Op: query.OpEqual, Kind: query.KindBool},
	"from":   {Column: "created_at", Op: query.OpDateFrom, Kind: query.KindDate},
	"to":     {Column: "created_at", Op: query.OpDateTo, Kind: query.KindDate},
}

var familySortColumns = map[string]string{
	"created_at":   "created_at",
	"household_no": "household_no",
	"member_count": "member_count",
}

// List returns families inside the given GN id set. A nil set means
// unrestricted (national scope with no jurisdiction filter); an empty set
// yields an empty page.
func (r *FamilyRepository) List(ctx context.Context, q model.FamilyQuery) ([]model.Family, model.Meta, error) {
	f := query.Compile(familyFilterSchema, map[string]string{
		"search": q.Search,
		"active": q.Active,
		"from":   q.From,
		"to":     q.To,
	})
	if q.GNIDs != nil {
		f.And("gn_id = ANY(%s)", q.GNIDs)
	}

	spec := query.PageSpec{
		Select: `SELECT ` + familyColumns + ` FROM families`,
		Count:  `SELECT COUNT(*) FROM families`,
		Sort: query.ResolveSort(familySortColumns, q.Sort, q.Direction,
			query.Sort{Column: "created_at", Direction: "DESC"}),
		Page:  q.Page,
		Limit: q.Limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.Family, error) {
		return scanFamily(rows)
	})
}

// Members returns a family's citizens, living first.
func (r *FamilyRepository) Members(ctx context.Context, familyID string) ([]model.Citizen, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+citizenColumns+` FROM citizens
		 WHERE family_id = $1
		 ORDER BY is_alive DESC, date_of_birth`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	members := make([]model.Citizen, 0, 8)
	for rows.Next() {
		member, scanErr := scanCitizen(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan family member: %w", scanErr)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *FamilyRepository) Create(ctx context.Context, f model.Family) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO families (id, gn_id, household_no, address, member_count, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.GNID, f.HouseholdNo, f.Address, f.MemberCount, f.IsActive, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create family: %w", err)
	}
	return nil
}

func (r *FamilyRepository) Update(ctx context.Context, f model.Family) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE families SET household_no = $2, address = $3, updated_at = $4 WHERE id = $1`,
		f.ID, f.HouseholdNo, f.Address, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFamilyNotFound
	}
	return nil
}

func (r *FamilyRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE families SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set family status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFamilyNotFound
	}
	return nil
}

// MoveToGN reassigns a family to another GN division. Invoked when a transfer
// is approved.
func (r *FamilyRepository) MoveToGN(ctx context.Context, familyID string, gnID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE families SET gn_id = $2, updated_at = $3 WHERE id = $1`,
		familyID, gnID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("move family: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFamilyNotFound
	}
	return nil
}

// SyncMemberCount refreshes the denormalized member_count cache from the live
// citizen count. Statistics never read the cache; list pages display it.
func (r *FamilyRepository) SyncMemberCount(ctx context.Context, familyID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE families
		 SET member_count = (SELECT COUNT(*) FROM citizens WHERE family_id = $1 AND is_alive),
		     updated_at = $2
		 WHERE id = $1`, familyID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sync member count: %w", err)
	}
	return nil
}
