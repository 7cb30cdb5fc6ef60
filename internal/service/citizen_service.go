package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gn-registry/internal/model"
	"gn-registry/pkg/apierror"
)

type citizenStore interface {
	FindByID(ctx context.Context, id string) (model.Citizen, error)
	List(ctx context.Context, q model.CitizenQuery) ([]model.Citizen, model.Meta, error)
	Create(ctx context.Context, c model.Citizen) error
	Update(ctx context.Context, c model.Citizen) error
	MarkDeceased(ctx context.Context, id string, at time.Time) error
}

type familyFinder interface {
	FindByID(ctx context.Context, id string) (model.Family, error)
	SyncMemberCount(ctx context.Context, familyID string) error
}

type CitizenService struct {
	citizens citizenStore
	families familyFinder
	scopes   scopeResolver
	audit    recorder
}

func NewCitizenService(citizens citizenStore, families familyFinder, scopes scopeResolver, audit recorder) *CitizenService {
	return &CitizenService{citizens: citizens, families: families, scopes: scopes, audit: audit}
}

// List returns citizens visible to the caller; the scope restriction applies
// through the owning family's GN division.
func (s *CitizenService) List(ctx context.Context, principal model.Principal, gnFilter string, q model.CitizenQuery) ([]model.Citizen, model.Meta, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return nil, model.Meta{}, err
	}

	if principal.Role == model.RoleMOHA && gnFilter == "" {
		q.GNIDs = nil
	} else {
		q.GNIDs = sc.Narrow(gnFilter)
	}

	return s.citizens.List(ctx, q)
}

func (s *CitizenService) Get(ctx context.Context, principal model.Principal, id string) (model.Citizen, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Citizen{}, err
	}

	citizen, err := s.citizens.FindByID(ctx, id)
	if err != nil {
		return model.Citizen{}, err
	}

	family, err := s.families.FindByID(ctx, citizen.FamilyID)
	if err != nil {
		return model.Citizen{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.Citizen{}, model.ErrAccessDenied
	}

	return citizen, nil
}

func (s *CitizenService) Create(ctx context.Context, principal model.Principal, actor model.AuditActor, c model.Citizen) (model.Citizen, error) {
	c.FullName = strings.TrimSpace(c.FullName)
	c.NIC = strings.TrimSpace(c.NIC)
	if c.FullName == "" || c.FamilyID == "" {
		return model.Citizen{}, apierror.BadRequest("full name and family are required", "")
	}
	if c.DateOfBirth.IsZero() {
		return model.Citizen{}, apierror.BadRequest("date of birth is required", "")
	}

	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Citizen{}, err
	}

	family, err := s.families.FindByID(ctx, c.FamilyID)
	if err != nil {
		return model.Citizen{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.Citizen{}, model.ErrAccessDenied
	}

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.IsAlive = true
	c.DeceasedAt = nil
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.citizens.Create(ctx, c); err != nil {
		return model.Citizen{}, err
	}

	// member_count is a display cache; a sync failure is not fatal.
	if err := s.families.SyncMemberCount(ctx, c.FamilyID); err != nil {
		slog.Warn("member count sync failed", "family_id", c.FamilyID, "error", err)
	}

	s.audit.Record(ctx, actor, "create", "citizens", c.ID, nil, c)
	return c, nil
}

func (s *CitizenService) Update(ctx context.Context, principal model.Principal, actor model.AuditActor, updated model.Citizen) (model.Citizen, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Citizen{}, err
	}

	old, err := s.citizens.FindByID(ctx, updated.ID)
	if err != nil {
		return model.Citizen{}, err
	}

	family, err := s.families.FindByID(ctx, old.FamilyID)
	if err != nil {
		return model.Citizen{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.Citizen{}, model.ErrAccessDenied
	}

	merged := old
	if v := strings.TrimSpace(updated.FullName); v != "" {
		merged.FullName = v
	}
	if v := strings.TrimSpace(updated.NIC); v != "" {
		merged.NIC = v
	}
	if v := strings.TrimSpace(updated.Gender); v != "" {
		merged.Gender = v
	}
	if !updated.DateOfBirth.IsZero() {
		merged.DateOfBirth = updated.DateOfBirth
	}
	if v := strings.TrimSpace(updated.Occupation); v != "" {
		merged.Occupation = v
	}
	if v := strings.TrimSpace(updated.Relationship); v != "" {
		merged.Relationship = v
	}

	if err := s.citizens.Update(ctx, merged); err != nil {
		return model.Citizen{}, err
	}

	s.audit.Record(ctx, actor, "update", "citizens", merged.ID, old, merged)
	return merged, nil
}

// MarkDeceased flips a citizen's liveness flag; the record stays for the
// audit trail and historical statistics.
func (s *CitizenService) MarkDeceased(ctx context.Context, principal model.Principal, actor model.AuditActor, id string) (model.Citizen, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Citizen{}, err
	}

	old, err := s.citizens.FindByID(ctx, id)
	if err != nil {
		return model.Citizen{}, err
	}

	family, err := s.families.FindByID(ctx, old.FamilyID)
	if err != nil {
		return model.Citizen{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.Citizen{}, model.ErrAccessDenied
	}

	now := time.Now().UTC()
	if err := s.citizens.MarkDeceased(ctx, id, now); err != nil {
		return model.Citizen{}, err
	}

	if err := s.families.SyncMemberCount(ctx, old.FamilyID); err != nil {
		slog.Warn("member count sync failed", "family_id", old.FamilyID, "error", err)
	}

	updated := old
	updated.IsAlive = false
	updated.DeceasedAt = &now
	s.audit.Record(ctx, actor, "status_change", "citizens", id,
		map[string]any{"is_alive": true},
		map[string]any{"is_alive": false})
	return updated, nil
}
