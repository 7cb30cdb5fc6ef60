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

type TransferRepository struct {
	pool *pgxpool.Pool
}

func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, family_id, from_gn_id, to_gn_id, reason, status,
	requested_by, decided_by, remarks, requested_at, decided_at`

func scanTransfer(row pgx.Row) (model.Transfer, error) {
	var t model.Transfer
	var decidedBy *string
	err := row.Scan(&t.ID, &t.FamilyID, &t.FromGNID, &t.ToGNID, &t.Reason, &t.Status,
		&t.RequestedBy, &decidedBy, &t.Remarks, &t.RequestedAt, &t.DecidedAt)
	if err != nil {
		return model.Transfer{}, err
	}
	if decidedBy != nil {
		t.DecidedBy = *decidedBy
	}
	return t, nil
}

func (r *TransferRepository) FindByID(ctx context.Context, id string) (model.Transfer, error) {
	t, err := scanTransfer(r.pool.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transfer{}, model.ErrTransferNotFound
	}
	if err != nil {
		return model.Transfer{}, fmt.Errorf("find transfer by id: %w", err)
	}
	return t, nil
}

func (r *TransferRepository) HasPending(ctx context.Context, familyID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transfers WHERE family_id = $1 AND status = $2)`,
		familyID, model.TransferPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending transfer: %w", err)
	}
	return exists, nil
}

func (r *TransferRepository) Create(ctx context.Context, t model.Transfer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transfers (id, family_id, from_gn_id, to_gn_id, reason, status, requested_by, requested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.FamilyID, t.FromGNID, t.ToGNID, t.Reason, t.Status, t.RequestedBy, t.RequestedAt)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// Decide moves a pending transfer to approved or rejected. Deciding an
// already-decided transfer is reported as not pending, so concurrent
// decisions cannot double-apply.
func (r *TransferRepository) Decide(ctx context.Context, id string, status string, decidedBy string, remarks string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transfers
		 SET status = $2, decided_by = $3, remarks = $4, decided_at = $5
		 WHERE id = $1 AND status = $6`,
		id, status, decidedBy, remarks, time.Now().UTC(), model.TransferPending)
	if err != nil {
		return fmt.Errorf("decide transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransferNotPending
	}
	return nil
}

// Approve marks a pending transfer approved and moves the family to the
// destination GN in one transaction, so a concurrent decision can never
// leave the family half-moved.
func (r *TransferRepository) Approve(ctx context.Context, id string, decidedBy string, remarks string) (model.Transfer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Transfer{}, fmt.Errorf("begin approve transfer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := scanTransfer(tx.QueryRow(ctx,
		`UPDATE transfers
		 SET status = $2, decided_by = $3, remarks = $4, decided_at = $5
		 WHERE id = $1 AND status = $6
		 RETURNING `+transferColumns,
		id, model.TransferApproved, decidedBy, remarks, time.Now().UTC(), model.TransferPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transfer{}, model.ErrTransferNotPending
	}
	if err != nil {
		return model.Transfer{}, fmt.Errorf("approve transfer: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE families SET gn_id = $2, updated_at = $3 WHERE id = $1`,
		t.FamilyID, t.ToGNID, time.Now().UTC()); err != nil {
		return model.Transfer{}, fmt.Errorf("move family on approval: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Transfer{}, fmt.Errorf("commit approve transfer: %w", err)
	}
	return t, nil
}

var transferFilterSchema = query.Schema{
	"status": {Column: "status", Op: query.OpEqualFold, Kind: query.KindText},
	"family": {Column: "family_id", Op: query.OpEqual, Kind: query.KindUUID},
	"to_gn":  {Column: "to_gn_id", Op: query.OpEqual, Kind: query.KindUUID},
	"from":   {Column: "requested_at", Op: query.OpDateFrom, Kind: query.KindDate},
	"to":     {Column: "requested_at", Op: query.OpDateTo, Kind: query.KindDate},
}

var transferSortColumns = map[string]string{
	"requested_at": "requested_at",
	"decided_at":   "decided_at",
	"status":       "status",
}

func (r *TransferRepository) List(ctx context.Context, q model.TransferQuery) ([]model.Transfer, model.Meta, error) {
	f := query.Compile(transferFilterSchema, map[string]string{
		"status": q.Status,
		"family": q.FamilyID,
		"to_gn":  q.ToGNID,
		"from":   q.From,
		"to":     q.To,
	})
	if q.GNIDs != nil {
		f.And("from_gn_id = ANY(%s)", q.GNIDs)
	}

	spec := query.PageSpec{
		Select: `SELECT ` + transferColumns + ` FROM transfers`,
		Count:  `SELECT COUNT(*) FROM transfers`,
		Sort: query.ResolveSort(transferSortColumns, q.Sort, q.Direction,
			query.Sort{Column: "requested_at", Direction: "DESC"}),
		Page:  q.Page,
		Limit: q.Limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.Transfer, error) {
		return scanTransfer(rows)
	})
}
