package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gn-registry/internal/model"
	"gn-registry/internal/scope"
	"gn-registry/pkg/apierror"
)

type jurisdictionStore interface {
	Snapshot(ctx context.Context) ([]model.Jurisdiction, error)
	FindByID(ctx context.Context, id string) (model.Jurisdiction, error)
	ExistsByCode(ctx context.Context, level model.Level, code string) (bool, error)
	Create(ctx context.Context, j model.Jurisdiction) error
	Rename(ctx context.Context, id string, officeName string) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, values map[string]string, page int, limit int, sortKey string, direction string) ([]model.Jurisdiction, model.Meta, error)
}

type recorder interface {
	Record(ctx context.Context, actor model.AuditActor, actionType string, tableName string, recordID string, oldValues any, newValues any)
}

// JurisdictionService owns the hierarchy tree: snapshots for scope
// resolution, node administration, and scope-restricted listing.
type JurisdictionService struct {
	store jurisdictionStore
	audit recorder
}

func NewJurisdictionService(store jurisdictionStore, audit recorder) *JurisdictionService {
	return &JurisdictionService{store: store, audit: audit}
}

// Tree loads a point-in-time snapshot of the hierarchy.
func (s *JurisdictionService) Tree(ctx context.Context) (*scope.Tree, error) {
	nodes, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scope.NewTree(nodes), nil
}

// ResolveScope loads the tree snapshot and derives the principal's scope.
// Invoked once per request, before any filter is applied.
func (s *JurisdictionService) ResolveScope(ctx context.Context, principal model.Principal) (*scope.Tree, *scope.Scope, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, nil, err
	}

	sc, err := scope.Resolve(tree, principal)
	if err != nil {
		return nil, nil, err
	}

	return tree, sc, nil
}

func (s *JurisdictionService) Get(ctx context.Context, principal model.Principal, id string) (model.Jurisdiction, error) {
	_, sc, err := s.ResolveScope(ctx, principal)
	if err != nil {
		return model.Jurisdiction{}, err
	}
	if !sc.Contains(id) {
		return model.Jurisdiction{}, model.ErrAccessDenied
	}

	return s.store.FindByID(ctx, id)
}

// Children lists the direct children of a node inside the caller's scope.
func (s *JurisdictionService) Children(ctx context.Context, principal model.Principal, id string) ([]model.Jurisdiction, error) {
	tree, sc, err := s.ResolveScope(ctx, principal)
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = sc.HomeID()
	}
	if !sc.Contains(id) {
		return nil, model.ErrAccessDenied
	}

	return tree.Children(id), nil
}

func (s *JurisdictionService) List(ctx context.Context, values map[string]string, page int, limit int, sortKey string, direction string) ([]model.Jurisdiction, model.Meta, error) {
	return s.store.List(ctx, values, page, limit, sortKey, direction)
}

// Create adds a node one level below its parent. The hierarchy never skips
// levels and office codes are unique within a level.
func (s *JurisdictionService) Create(ctx context.Context, actor model.AuditActor, parentID string, levelRaw string, officeCode string, officeName string) (model.Jurisdiction, error) {
	officeCode = strings.TrimSpace(officeCode)
	officeName = strings.TrimSpace(officeName)
	if officeCode == "" || officeName == "" {
		return model.Jurisdiction{}, apierror.BadRequest("office code and name are required", "")
	}

	level, ok := model.ParseLevel(strings.TrimSpace(levelRaw))
	if !ok {
		return model.Jurisdiction{}, apierror.BadRequest("invalid jurisdiction level", levelRaw)
	}

	if level == model.LevelNational {
		return model.Jurisdiction{}, apierror.BadRequest("national root cannot be created", "")
	}

	parent, err := s.store.FindByID(ctx, parentID)
	if err != nil {
		return model.Jurisdiction{}, err
	}
	if expected, hasChild := parent.Level.ChildLevel(); !hasChild || expected != level {
		return model.Jurisdiction{}, apierror.BadRequest("level must be exactly one below the parent", string(level))
	}

	taken, err := s.store.ExistsByCode(ctx, level, officeCode)
	if err != nil {
		return model.Jurisdiction{}, err
	}
	if taken {
		return model.Jurisdiction{}, apierror.Conflict("office code already in use", officeCode)
	}

	now := time.Now().UTC()
	node := model.Jurisdiction{
		ID:         uuid.NewString(),
		Level:      level,
		ParentID:   parentID,
		OfficeCode: officeCode,
		OfficeName: officeName,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Create(ctx, node); err != nil {
		return model.Jurisdiction{}, err
	}

	s.audit.Record(ctx, actor, "create", "jurisdictions", node.ID, nil, node)
	return node, nil
}

func (s *JurisdictionService) Rename(ctx context.Context, actor model.AuditActor, id string, officeName string) (model.Jurisdiction, error) {
	officeName = strings.TrimSpace(officeName)
	if officeName == "" {
		return model.Jurisdiction{}, apierror.BadRequest("office name is required", "")
	}

	old, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Jurisdiction{}, err
	}

	if err := s.store.Rename(ctx, id, officeName); err != nil {
		return model.Jurisdiction{}, err
	}

	updated := old
	updated.OfficeName = officeName
	s.audit.Record(ctx, actor, "update", "jurisdictions", id,
		map[string]any{"office_name": old.OfficeName},
		map[string]any{"office_name": officeName})
	return updated, nil
}

// SetStatus toggles a node's active flag and audits the change.
func (s *JurisdictionService) SetStatus(ctx context.Context, actor model.AuditActor, id string, active bool) (model.Jurisdiction, error) {
	old, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Jurisdiction{}, err
	}

	if err := s.store.SetActive(ctx, id, active); err != nil {
		return model.Jurisdiction{}, err
	}

	updated := old
	updated.IsActive = active
	s.audit.Record(ctx, actor, "status_change", "jurisdictions", id,
		map[string]any{"is_active": old.IsActive},
		map[string]any{"is_active": active})
	return updated, nil
}
