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

type scopeResolver interface {
	ResolveScope(ctx context.Context, principal model.Principal) (*scope.Tree, *scope.Scope, error)
}

type familyStore interface {
	FindByID(ctx context.Context, id string) (model.Family, error)
	List(ctx context.Context, q model.FamilyQuery) ([]model.Family, model.Meta, error)
	Members(ctx context.Context, familyID string) ([]model.Citizen, error)
	Create(ctx context.Context, f model.Family) error
	Update(ctx context.Context, f model.Family) error
	SetActive(ctx context.Context, id string, active bool) error
}

type FamilyService struct {
	families familyStore
	scopes   scopeResolver
	audit    recorder
}

func NewFamilyService(families familyStore, scopes scopeResolver, audit recorder) *FamilyService {
	return &FamilyService{families: families, scopes: scopes, audit: audit}
}

// List returns the caller's visible families. Any jurisdiction filter in the
// query is intersected with the resolved scope, never substituted for it;
// requesting an out-of-scope division yields an empty page.
func (s *FamilyService) List(ctx context.Context, principal model.Principal, q model.FamilyQuery) ([]model.Family, model.Meta, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return nil, model.Meta{}, err
	}

	if principal.Role == model.RoleMOHA && q.GNID == "" {
		q.GNIDs = nil // national scope, no restriction needed
	} else {
		q.GNIDs = sc.Narrow(q.GNID)
	}

	return s.families.List(ctx, q)
}

func (s *FamilyService) Get(ctx context.Context, principal model.Principal, id string) (model.FamilyDetail, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.FamilyDetail{}, err
	}

	family, err := s.families.FindByID(ctx, id)
	if err != nil {
		return model.FamilyDetail{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.FamilyDetail{}, model.ErrAccessDenied
	}

	members, err := s.families.Members(ctx, id)
	if err != nil {
		return model.FamilyDetail{}, err
	}

	return model.FamilyDetail{Family: family, Members: members}, nil
}

func (s *FamilyService) Create(ctx context.Context, principal model.Principal, actor model.AuditActor, gnID string, householdNo string, address string) (model.Family, error) {
	householdNo = strings.TrimSpace(householdNo)
	address = strings.TrimSpace(address)
	if householdNo == "" || address == "" {
		return model.Family{}, apierror.BadRequest("household number and address are required", "")
	}

	tree, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Family{}, err
	}

	node, ok := tree.Node(gnID)
	if !ok || node.Level != model.LevelGN {
		return model.Family{}, apierror.BadRequest("gn_id must name a GN division", gnID)
	}
	if !sc.Contains(gnID) {
		return model.Family{}, model.ErrAccessDenied
	}

	now := time.Now().UTC()
	family := model.Family{
		ID:          uuid.NewString(),
		GNID:        gnID,
		HouseholdNo: householdNo,
		Address:     address,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.families.Create(ctx, family); err != nil {
		return model.Family{}, err
	}

	s.audit.Record(ctx, actor, "create", "families", family.ID, nil, family)
	return family, nil
}

func (s *FamilyService) Update(ctx context.Context, principal model.Principal, actor model.AuditActor, id string, householdNo string, address string) (model.Family, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Family{}, err
	}

	old, err := s.families.FindByID(ctx, id)
	if err != nil {
		return model.Family{}, err
	}
	if !sc.Contains(old.GNID) {
		return model.Family{}, model.ErrAccessDenied
	}

	updated := old
	if v := strings.TrimSpace(householdNo); v != "" {
		updated.HouseholdNo = v
	}
	if v := strings.TrimSpace(address); v != "" {
		updated.Address = v
	}

	if err := s.families.Update(ctx, updated); err != nil {
		return model.Family{}, err
	}

	s.audit.Record(ctx, actor, "update", "families", id, old, updated)
	return updated, nil
}

// SetStatus toggles the family's active flag. The audit append happens after
// the update commits; an audit failure leaves the new status intact.
func (s *FamilyService) SetStatus(ctx context.Context, principal model.Principal, actor model.AuditActor, id string, active bool) (model.Family, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Family{}, err
	}

	old, err := s.families.FindByID(ctx, id)
	if err != nil {
		return model.Family{}, err
	}
	if !sc.Contains(old.GNID) {
		return model.Family{}, model.ErrAccessDenied
	}

	if err := s.families.SetActive(ctx, id, active); err != nil {
		return model.Family{}, err
	}

	updated := old
	updated.IsActive = active
	s.audit.Record(ctx, actor, "status_change", "families", id,
		map[string]any{"is_active": old.IsActive},
		map[string]any{"is_active": active})
	return updated, nil
}
