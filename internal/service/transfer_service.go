package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gn-registry/internal/model"
	"gn-registry/pkg/apierror"
)

type transferStore interface {
	FindByID(ctx context.Context, id string) (model.Transfer, error)
	HasPending(ctx context.Context, familyID string) (bool, error)
	Create(ctx context.Context, t model.Transfer) error
	Approve(ctx context.Context, id string, decidedBy string, remarks string) (model.Transfer, error)
	Decide(ctx context.Context, id string, status string, decidedBy string, remarks string) error
	List(ctx context.Context, q model.TransferQuery) ([]model.Transfer, model.Meta, error)
}

type transferFamilyStore interface {
	FindByID(ctx context.Context, id string) (model.Family, error)
}

// TransferService manages family transfers between GN divisions. Only the
// direct pending state is tracked; multi-hop transfer chains are out of
// scope.
type TransferService struct {
	transfers transferStore
	families  transferFamilyStore
	scopes    scopeResolver
	audit     recorder
}

func NewTransferService(transfers transferStore, families transferFamilyStore, scopes scopeResolver, audit recorder) *TransferService {
	return &TransferService{transfers: transfers, families: families, scopes: scopes, audit: audit}
}

func (s *TransferService) List(ctx context.Context, principal model.Principal, q model.TransferQuery) ([]model.Transfer, model.Meta, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return nil, model.Meta{}, err
	}

	if principal.Role == model.RoleMOHA {
		q.GNIDs = nil
	} else {
		q.GNIDs = sc.GNIDs()
	}

	return s.transfers.List(ctx, q)
}

func (s *TransferService) Get(ctx context.Context, principal model.Principal, id string) (model.Transfer, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Transfer{}, err
	}

	transfer, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return model.Transfer{}, err
	}
	if !sc.Contains(transfer.FromGNID) && !sc.Contains(transfer.ToGNID) {
		return model.Transfer{}, model.ErrAccessDenied
	}

	return transfer, nil
}

// Request opens a pending transfer for a family in the caller's scope. A
// family can have at most one pending transfer.
func (s *TransferService) Request(ctx context.Context, principal model.Principal, actor model.AuditActor, familyID string, toGNID string, reason string) (model.Transfer, error) {
	tree, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Transfer{}, err
	}

	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return model.Transfer{}, err
	}
	if !sc.Contains(family.GNID) {
		return model.Transfer{}, model.ErrAccessDenied
	}

	dest, ok := tree.Node(toGNID)
	if !ok || dest.Level != model.LevelGN {
		return model.Transfer{}, apierror.BadRequest("destination must be a GN division", toGNID)
	}
	if !dest.IsActive {
		return model.Transfer{}, apierror.BadRequest("destination division is inactive", toGNID)
	}
	if toGNID == family.GNID {
		return model.Transfer{}, apierror.BadRequest("destination matches the current division", toGNID)
	}

	pending, err := s.transfers.HasPending(ctx, familyID)
	if err != nil {
		return model.Transfer{}, err
	}
	if pending {
		return model.Transfer{}, apierror.Conflict("family already has a pending transfer", familyID)
	}

	transfer := model.Transfer{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		FromGNID:    family.GNID,
		ToGNID:      toGNID,
		Reason:      strings.TrimSpace(reason),
		Status:      model.TransferPending,
		RequestedBy: principal.UserID,
		RequestedAt: time.Now().UTC(),
	}

	if err := s.transfers.Create(ctx, transfer); err != nil {
		return model.Transfer{}, err
	}

	s.audit.Record(ctx, actor, "transfer_request", "transfers", transfer.ID, nil, transfer)
	return transfer, nil
}

// Approve applies a pending transfer: the decision and the family move commit
// together, then the action is audited.
func (s *TransferService) Approve(ctx context.Context, principal model.Principal, actor model.AuditActor, id string, remarks string) (model.Transfer, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Transfer{}, err
	}

	transfer, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return model.Transfer{}, err
	}
	if !sc.Contains(transfer.FromGNID) {
		return model.Transfer{}, model.ErrAccessDenied
	}

	approved, err := s.transfers.Approve(ctx, id, principal.UserID, strings.TrimSpace(remarks))
	if err != nil {
		return model.Transfer{}, err
	}

	s.audit.Record(ctx, actor, "transfer_approve", "transfers", id,
		map[string]any{"status": model.TransferPending, "gn_id": approved.FromGNID},
		map[string]any{"status": model.TransferApproved, "gn_id": approved.ToGNID})
	return approved, nil
}

func (s *TransferService) Reject(ctx context.Context, principal model.Principal, actor model.AuditActor, id string, remarks string) (model.Transfer, error) {
	_, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Transfer{}, err
	}

	transfer, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return model.Transfer{}, err
	}
	if !sc.Contains(transfer.FromGNID) {
		return model.Transfer{}, model.ErrAccessDenied
	}

	if err := s.transfers.Decide(ctx, id, model.TransferRejected, principal.UserID, strings.TrimSpace(remarks)); err != nil {
		return model.Transfer{}, err
	}

	rejected, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		rejected = transfer
		rejected.Status = model.TransferRejected
	}

	s.audit.Record(ctx, actor, "transfer_reject", "transfers", id,
		map[string]any{"status": model.TransferPending},
		map[string]any{"status": model.TransferRejected})
	return rejected, nil
}
