package service

import (
	"context"
	"log/slog"
	"time"

	"gn-registry/internal/metrics"
	"gn-registry/internal/model"
)

type auditStore interface {
	Insert(ctx context.Context, rec model.AuditRecord) error
	List(ctx context.Context, q model.AuditQuery) ([]model.AuditRecord, model.Meta, error)
}

// AuditService appends immutable action records. Writes are best-effort
// relative to the business mutation that triggered them: a failed append is
// logged and counted but never propagated, so it can never roll back or fail
// the primary operation.
type AuditService struct {
	store auditStore
	m     *metrics.Metrics
}

func NewAuditService(store auditStore, m *metrics.Metrics) *AuditService {
	return &AuditService{store: store, m: m}
}

// Record appends one audit record for a completed action. Call it only after
// the business mutation has committed.
func (s *AuditService) Record(ctx context.Context, actor model.AuditActor, actionType string, tableName string, recordID string, oldValues any, newValues any) {
	if s == nil {
		return
	}

	rec := model.AuditRecord{
		Actor:      actor,
		ActionType: actionType,
		TableName:  tableName,
		RecordID:   recordID,
		OldValues:  oldValues,
		NewValues:  newValues,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		slog.Error("audit write failed",
			"action", actionType, "table", tableName, "record_id", recordID, "error", err)
		if s.m != nil {
			s.m.AuditWriteFailures.Inc()
		}
	}
}

func (s *AuditService) List(ctx context.Context, q model.AuditQuery) ([]model.AuditRecord, model.Meta, error) {
	return s.store.List(ctx, q)
}
