package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gn-registry/internal/model"
	"gn-registry/internal/query"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Insert appends one audit record. The insert is a single atomic statement:
// either the full record exists afterwards or nothing does.
func (r *AuditRepository) Insert(ctx context.Context, rec model.AuditRecord) error {
	var oldJSON, newJSON []byte
	var err error

	if rec.OldValues != nil {
		oldJSON, err = json.Marshal(rec.OldValues)
		if err != nil {
			return fmt.Errorf("marshal old values: %w", err)
		}
	}
	if rec.NewValues != nil {
		newJSON, err = json.Marshal(rec.NewValues)
		if err != nil {
			return fmt.Errorf("marshal new values: %w", err)
		}
	}

	var userID *string
	if rec.Actor.UserID != "" {
		userID = &rec.Actor.UserID
	}
	var recordID *string
	if rec.RecordID != "" {
		recordID = &rec.RecordID
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_logs
		 (user_id, username, role, action_type, table_name, record_id,
		  old_values, new_values, ip_address, user_agent, client, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		userID, rec.Actor.Username, rec.Actor.Role, rec.ActionType, rec.TableName, recordID,
		oldJSON, newJSON, rec.Actor.IP, rec.Actor.UserAgent, rec.Actor.Client, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

var auditFilterSchema = query.Schema{
	"action": {Column: "action_type", Op: query.OpEqualFold, Kind: query.KindText},
	"table":  {Column: "table_name", Op: query.OpEqualFold, Kind: query.KindText},
	"user":   {Column: "user_id", Op: query.OpEqual, Kind: query.KindUUID},
	"search": {Columns: []string{"ip_address", "user_agent"}, Op: query.OpSearch, Kind: query.KindText},
	"from":   {Column: "created_at", Op: query.OpDateFrom, Kind: query.KindDate},
	"to":     {Column: "created_at", Op: query.OpDateTo, Kind: query.KindDate},
}

var auditSortColumns = map[string]string{
	"created_at": "created_at",
	"action":     "action_type",
}

func (r *AuditRepository) List(ctx context.Context, q model.AuditQuery) ([]model.AuditRecord, model.Meta, error) {
	f := query.Compile(auditFilterSchema, map[string]string{
		"action": q.ActionType,
		"table":  q.TableName,
		"user":   q.UserID,
		"search": q.Search,
		"from":   q.From,
		"to":     q.To,
	})

	spec := query.PageSpec{
		Select: `SELECT id, user_id, username, role, action_type, table_name, record_id,
		                old_values, new_values, ip_address, user_agent, client, created_at
		         FROM audit_logs`,
		Count: `SELECT COUNT(*) FROM audit_logs`,
		Sort: query.ResolveSort(auditSortColumns, q.Sort, q.Direction,
			query.Sort{Column: "created_at", Direction: "DESC"}),
		Page:  q.Page,
		Limit: q.Limit,
	}

	return query.Paginate(ctx, r.pool, spec, f, func(rows pgx.Rows) (model.AuditRecord, error) {
		var rec model.AuditRecord
		var userID, recordID *string
		var oldJSON, newJSON []byte

		err := rows.Scan(&rec.ID, &userID, &rec.Actor.Username, &rec.Actor.Role,
			&rec.ActionType, &rec.TableName, &recordID,
			&oldJSON, &newJSON, &rec.Actor.IP, &rec.Actor.UserAgent, &rec.Actor.Client,
			&rec.CreatedAt)
		if err != nil {
			return model.AuditRecord{}, err
		}

		if userID != nil {
			rec.Actor.UserID = *userID
		}
		if recordID != nil {
			rec.RecordID = *recordID
		}
		if len(oldJSON) > 0 {
			var old any
			if jsonErr := json.Unmarshal(oldJSON, &old); jsonErr == nil {
				rec.OldValues = old
			}
		}
		if len(newJSON) > 0 {
			var updated any
			if jsonErr := json.Unmarshal(newJSON, &updated); jsonErr == nil {
				rec.NewValues = updated
			}
		}

		return rec, nil
	})
}
