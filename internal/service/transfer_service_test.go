package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gn-registry/internal/model"
)

type fakeTransferStore struct {
	transfers map[string]model.Transfer
	lastQuery model.TransferQuery
}

func newFakeTransferStore(transfers ...model.Transfer) *fakeTransferStore {
	s := &fakeTransferStore{transfers: map[string]model.Transfer{}}
	for _, tr := range transfers {
		s.transfers[tr.ID] = tr
	}
	return s
}

func (s *fakeTransferStore) FindByID(_ context.Context, id string) (model.Transfer, error) {
	tr, ok := s.transfers[id]
	if !ok {
		return model.Transfer{}, model.ErrTransferNotFound
	}
	return tr, nil
}

func (s *fakeTransferStore) HasPending(_ context.Context, familyID string) (bool, error) {
	for _, tr := range s.transfers {
		if tr.FamilyID == familyID && tr.Status == model.TransferPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTransferStore) Create(_ context.Context, tr model.Transfer) error {
	s.transfers[tr.ID] = tr
	return nil
}

func (s *fakeTransferStore) Approve(_ context.Context, id string, decidedBy string, remarks string) (model.Transfer, error) {
	tr, ok := s.transfers[id]
	if !ok {
		return model.Transfer{}, model.ErrTransferNotFound
	}
	if tr.Status != model.TransferPending {
		return model.Transfer{}, model.ErrTransferNotPending
	}
	now := time.Now().UTC()
	tr.Status = model.TransferApproved
	tr.DecidedBy = decidedBy
	tr.Remarks = remarks
	tr.DecidedAt = &now
	s.transfers[id] = tr
	return tr, nil
}

func (s *fakeTransferStore) Decide(_ context.Context, id string, status string, decidedBy string, remarks string) error {
	tr, ok := s.transfers[id]
	if !ok {
		return model.ErrTransferNotFound
	}
	if tr.Status != model.TransferPending {
		return model.ErrTransferNotPending
	}
	now := time.Now().UTC()
	tr.Status = status
	tr.DecidedBy = decidedBy
	tr.Remarks = remarks
	tr.DecidedAt = &now
	s.transfers[id] = tr
	return nil
}

func (s *fakeTransferStore) List(_ context.Context, q model.TransferQuery) ([]model.Transfer, model.Meta, error) {
	s.lastQuery = q
	return []model.Transfer{}, model.Meta{Page: 1, Limit: 25}, nil
}

func TestTransferService_Request(t *testing.T) {
	principal := model.Principal{UserID: "u1", Role: model.RoleGN, JurisdictionID: "g1"}
	family := model.Family{ID: "f1", GNID: "g1", IsActive: true}

	t.Run("opens a pending transfer", func(t *testing.T) {
		transfers := newFakeTransferStore()
		audit := &fakeRecorder{}
		svc := NewTransferService(transfers, newFakeFamilyStore(family), newFakeScopes(), audit)

		tr, err := svc.Request(context.Background(), principal, model.AuditActor{}, "f1", "g3", "relocation")
		require.NoError(t, err)
		assert.Equal(t, model.TransferPending, tr.Status)
		assert.Equal(t, "g1", tr.FromGNID)
		assert.Equal(t, "g3", tr.ToGNID)
		assert.Equal(t, "u1", tr.RequestedBy)
		assert.Equal(t, "transfer_request", audit.last().ActionType)
	})

	t.Run("rejects second pending transfer for the same family", func(t *testing.T) {
		transfers := newFakeTransferStore(model.Transfer{ID: "t1", FamilyID: "f1", Status: model.TransferPending})
		svc := NewTransferService(transfers, newFakeFamilyStore(family), newFakeScopes(), &fakeRecorder{})

		_, err := svc.Request(context.Background(), principal, model.AuditActor{}, "f1", "g3", "")
		assert.Error(t, err)
	})

	t.Run("rejects destination equal to current division", func(t *testing.T) {
		svc := NewTransferService(newFakeTransferStore(), newFakeFamilyStore(family), newFakeScopes(), &fakeRecorder{})
		_, err := svc.Request(context.Background(), principal, model.AuditActor{}, "f1", "g1", "")
		assert.Error(t, err)
	})

	t.Run("rejects non-GN destination", func(t *testing.T) {
		svc := NewTransferService(newFakeTransferStore(), newFakeFamilyStore(family), newFakeScopes(), &fakeRecorder{})
		_, err := svc.Request(context.Background(), principal, model.AuditActor{}, "f1", "v2", "")
		assert.Error(t, err)
	})

	t.Run("denies family outside the caller's scope", func(t *testing.T) {
		other := model.Family{ID: "f2", GNID: "g3", IsActive: true}
		svc := NewTransferService(newFakeTransferStore(), newFakeFamilyStore(other), newFakeScopes(), &fakeRecorder{})
		_, err := svc.Request(context.Background(), principal, model.AuditActor{}, "f2", "g2", "")
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})
}

func TestTransferService_Approve(t *testing.T) {
	pending := model.Transfer{ID: "t1", FamilyID: "f1", FromGNID: "g1", ToGNID: "g3", Status: model.TransferPending}

	t.Run("division over the source GN approves", func(t *testing.T) {
		transfers := newFakeTransferStore(pending)
		audit := &fakeRecorder{}
		svc := NewTransferService(transfers, newFakeFamilyStore(), newFakeScopes(), audit)
		principal := model.Principal{UserID: "u2", Role: model.RoleDivision, JurisdictionID: "v1"}

		tr, err := svc.Approve(context.Background(), principal, model.AuditActor{}, "t1", "ok")
		require.NoError(t, err)
		assert.Equal(t, model.TransferApproved, tr.Status)
		assert.Equal(t, "u2", tr.DecidedBy)
		assert.Equal(t, "transfer_approve", audit.last().ActionType)
	})

	t.Run("destination-side officer cannot approve", func(t *testing.T) {
		transfers := newFakeTransferStore(pending)
		svc := NewTransferService(transfers, newFakeFamilyStore(), newFakeScopes(), &fakeRecorder{})
		principal := model.Principal{Role: model.RoleDivision, JurisdictionID: "v2"}

		_, err := svc.Approve(context.Background(), principal, model.AuditActor{}, "t1", "")
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("already decided transfer conflicts", func(t *testing.T) {
		decided := pending
		decided.Status = model.TransferApproved
		transfers := newFakeTransferStore(decided)
		svc := NewTransferService(transfers, newFakeFamilyStore(), newFakeScopes(), &fakeRecorder{})
		principal := model.Principal{Role: model.RoleMOHA}

		_, err := svc.Approve(context.Background(), principal, model.AuditActor{}, "t1", "")
		assert.ErrorIs(t, err, model.ErrTransferNotPending)
	})
}

func TestTransferService_Reject(t *testing.T) {
	pending := model.Transfer{ID: "t1", FamilyID: "f1", FromGNID: "g1", ToGNID: "g3", Status: model.TransferPending}
	transfers := newFakeTransferStore(pending)
	audit := &fakeRecorder{}
	svc := NewTransferService(transfers, newFakeFamilyStore(), newFakeScopes(), audit)
	principal := model.Principal{UserID: "u3", Role: model.RoleDistrict, JurisdictionID: "d1"}

	tr, err := svc.Reject(context.Background(), principal, model.AuditActor{}, "t1", "wrong division")
	require.NoError(t, err)
	assert.Equal(t, model.TransferRejected, tr.Status)
	assert.Equal(t, "transfer_reject", audit.last().ActionType)
}

func TestTransferService_List_Scoping(t *testing.T) {
	transfers := newFakeTransferStore()
	svc := NewTransferService(transfers, newFakeFamilyStore(), newFakeScopes(), &fakeRecorder{})

	t.Run("moha is unrestricted", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), model.Principal{Role: model.RoleMOHA}, model.TransferQuery{})
		require.NoError(t, err)
		assert.Nil(t, transfers.lastQuery.GNIDs)
	})

	t.Run("division sees only its source GNs", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleDivision, JurisdictionID: "v1"}
		_, _, err := svc.List(context.Background(), principal, model.TransferQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, transfers.lastQuery.GNIDs)
	})
}
