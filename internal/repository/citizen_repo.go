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

type CitizenRepository struct {
	pool *pgxpool.Pool
}

func NewCitizenRepository(pool *pgxpool.Pool) *CitizenRepository {
	return &CitizenRepository{pool: pool}
}

const citizenColumns = `c.id, c.family_id, c.nic, c.full_name, c.gender, c.date_of_birth,
	c.occupation, c.relationship, c.is_alive, c.deceased_at, c.created_at, c.updated_at`

func scanCitizen(row pgx.Row) (model.Citizen, error) {
	var c model.Citizen
	var nic *string
	err := row.Scan(&c.ID, &c.FamilyID, &nic, &c.FullName, &c.Gender, &c.DateOfBirth,
		&c.Occupation, &c.Relationship, &c.IsAlive, &c.DeceasedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Citizen{}, err
	}
	if nic != nil {
		c.NIC = *nic
	}
	return c, nil
}

func (r *CitizenRepository) FindByID(ctx context.Context, id string) (model.Citizen, error) {
	c, err := scanCitizen(r.pool.QueryRow(ctx,
		`SELECT `+citizenColumns+` FROM citizens c WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Citizen{}, model.ErrCitizenNotFound
	}
	if err != nil {
		return model.Citizen{}, fmt.Errorf("find citizen by id: %w", err)
	}
	return c, nil
}

var citizenFilterSchema = query.Schema{
	"search": {Columns: []string{"c.full_name", "c.nic"}, Op: query.OpSearch, Kind: query.KindText},
	"family": {Column: "c.family_id", Op: query.OpEqual, Kind: query.KindUUID},
	"gender": {Column: "c.gender", Op: query.OpEqualFold, Kind: query.KindText},
	"alive":  {Column: "c.is_alive", Op: query.OpEqual, Kind: query.KindBool},
	"from":   {Column: "c.created_at", Op: query.OpDateFrom, Kind: query.KindDate},
	"to":     {Column: "c.created_at", Op: query.OpDateTo, Kind: query.KindDate},
}

var citizenSortColumns = map[string]string{
	"full_name":     "c.full_name",
	"date_of_birth": "c.date_of_birth",
	"created_at":    "c.created_at",
}

// List joins through families so the scope restriction can apply to the
// owning GN division. The join is part of the count query too, since the
// filter needs it.
func (r *CitizenRepository) List(ctx context.Context, q model.CitizenQuery) ([]model.Citizen, model.Meta, error) {
	f := query.Compile(citizenFilterSchema, map[string]string{
		"search": q.Search,
		"family": q.FamilyID,
		"gender": q.Gender,
		"alive":  q.Alive,
		"from":   q.From,
		"to":     q.To,
	})
	if q.GNIDs != nil {
		f.And("fam.gn_id = ANY(%s)", q.GNIDs)
	}

	spec := query.PageSpec{
		Select: `SELECT ` + citizenColumns + ` FROM citizens c JOIN families fam ON fam.id = c.family_id`,
		Count:  `SELECT COUNT(*) FROM citizens c JOIN families fam ON fam.id = c.family_id`,
		Sort: query.ResolveSort(citizenSortColumns, q.Sort, q.Direction,
			query.Sort{Column: "c.created_at", Direction: "DESC"}),
		Page:  q.Page,
		Limit: q.Limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.Citizen, error) {
		return scanCitizen(rows)
	})
}

func (r *CitizenRepository) Create(ctx context.Context, c model.Citizen) error {
	var nic *string
	if c.NIC != "" {
		nic = &c.NIC
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO citizens (id, family_id, nic, full_name, gender, date_of_birth,
		                       occupation, relationship, is_alive, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.FamilyID, nic, c.FullName, c.Gender, c.DateOfBirth,
		c.Occupation, c.Relationship, c.IsAlive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create citizen: %w", err)
	}
	return nil
}

func (r *CitizenRepository) Update(ctx context.Context, c model.Citizen) error {
	var nic *string
	if c.NIC != "" {
		nic = &c.NIC
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE citizens
		 SET nic = $2, full_name = $3, gender = $4, date_of_birth = $5,
		     occupation = $6, relationship = $7, updated_at = $8
		 WHERE id = $1`,
		c.ID, nic, c.FullName, c.Gender, c.DateOfBirth,
		c.Occupation, c.Relationship, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update citizen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCitizenNotFound
	}
	return nil
}

// MarkDeceased flips the liveness flag once; the citizen stays on record.
func (r *CitizenRepository) MarkDeceased(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE citizens SET is_alive = FALSE, deceased_at = $2, updated_at = $2
		 WHERE id = $1 AND is_alive`, id, at)
	if err != nil {
		return fmt.Errorf("mark citizen deceased: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCitizenNotFound
	}
	return nil
}
