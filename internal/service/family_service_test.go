package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gn-registry/internal/model"
)

func TestFamilyService_List_ScopeIntersection(t *testing.T) {
	store := newFakeFamilyStore()
	svc := NewFamilyService(store, newFakeScopes(), &fakeRecorder{})

	t.Run("moha without filter is unrestricted", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), model.Principal{Role: model.RoleMOHA}, model.FamilyQuery{})
		require.NoError(t, err)
		assert.Nil(t, store.lastQuery.GNIDs)
	})

	t.Run("moha with filter narrows to that subtree", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), model.Principal{Role: model.RoleMOHA}, model.FamilyQuery{GNID: "v1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, store.lastQuery.GNIDs)
	})

	t.Run("district scope restricts to its GNs", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleDistrict, JurisdictionID: "d1"}
		_, _, err := svc.List(context.Background(), principal, model.FamilyQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, store.lastQuery.GNIDs)
	})

	t.Run("out-of-scope filter becomes empty set not error", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleDistrict, JurisdictionID: "d1"}
		_, _, err := svc.List(context.Background(), principal, model.FamilyQuery{GNID: "g3"})
		require.NoError(t, err)
		require.NotNil(t, store.lastQuery.GNIDs)
		assert.Empty(t, store.lastQuery.GNIDs)
	})

	t.Run("orphaned account cannot list", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleGN, JurisdictionID: "deleted-gn"}
		_, _, err := svc.List(context.Background(), principal, model.FamilyQuery{})
		assert.ErrorIs(t, err, model.ErrScopeUnresolved)
	})
}

func TestFamilyService_Get_ScopeCheck(t *testing.T) {
	store := newFakeFamilyStore(model.Family{ID: "f1", GNID: "g3", IsActive: true})
	svc := NewFamilyService(store, newFakeScopes(), &fakeRecorder{})

	t.Run("outside scope is denied", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}
		_, err := svc.Get(context.Background(), principal, "f1")
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("inside scope returns detail", func(t *testing.T) {
		principal := model.Principal{Role: model.RoleDistrict, JurisdictionID: "d2"}
		detail, err := svc.Get(context.Background(), principal, "f1")
		require.NoError(t, err)
		assert.Equal(t, "f1", detail.Family.ID)
		assert.NotNil(t, detail.Members)
	})
}

func TestFamilyService_Create(t *testing.T) {
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}

	t.Run("creates and audits", func(t *testing.T) {
		store := newFakeFamilyStore()
		audit := &fakeRecorder{}
		svc := NewFamilyService(store, newFakeScopes(), audit)

		family, err := svc.Create(context.Background(), principal, model.AuditActor{}, "g1", "HH-17", "12 Temple Rd")
		require.NoError(t, err)
		assert.NotEmpty(t, family.ID)
		assert.True(t, family.IsActive)
		assert.Equal(t, "create", audit.last().ActionType)
		assert.Equal(t, "families", audit.last().TableName)
	})

	t.Run("rejects non-GN target", func(t *testing.T) {
		svc := NewFamilyService(newFakeFamilyStore(), newFakeScopes(), &fakeRecorder{})
		_, err := svc.Create(context.Background(), principal, model.AuditActor{}, "v1", "HH-17", "12 Temple Rd")
		assert.Error(t, err)
	})

	t.Run("rejects out-of-scope GN", func(t *testing.T) {
		svc := NewFamilyService(newFakeFamilyStore(), newFakeScopes(), &fakeRecorder{})
		_, err := svc.Create(context.Background(), principal, model.AuditActor{}, "g3", "HH-17", "12 Temple Rd")
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("rejects blank fields without touching the store", func(t *testing.T) {
		store := newFakeFamilyStore()
		svc := NewFamilyService(store, newFakeScopes(), &fakeRecorder{})
		_, err := svc.Create(context.Background(), principal, model.AuditActor{}, "g1", "  ", "addr")
		assert.Error(t, err)
		assert.Empty(t, store.families)
	})
}

func TestFamilyService_SetStatus_AuditAfterCommit(t *testing.T) {
	store := newFakeFamilyStore(model.Family{ID: "f1", GNID: "g1", IsActive: true})
	audit := &fakeRecorder{}
	svc := NewFamilyService(store, newFakeScopes(), audit)
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}

	family, err := svc.SetStatus(context.Background(), principal, model.AuditActor{}, "f1", false)
	require.NoError(t, err)
	assert.False(t, family.IsActive)
	assert.False(t, store.families["f1"].IsActive)

	rec := audit.last()
	assert.Equal(t, "status_change", rec.ActionType)
	assert.Equal(t, map[string]any{"is_active": true}, rec.OldValues)
	assert.Equal(t, map[string]any{"is_active": false}, rec.NewValues)
}

func TestFamilyService_SetStatus_StoreFailure(t *testing.T) {
	store := newFakeFamilyStore(model.Family{ID: "f1", GNID: "g1", IsActive: true})
	store.setErr = errStoreDown
	audit := &fakeRecorder{}
	svc := NewFamilyService(store, newFakeScopes(), audit)
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}

	_, err := svc.SetStatus(context.Background(), principal, model.AuditActor{}, "f1", false)
	assert.ErrorIs(t, err, errStoreDown)
	// Nothing committed means nothing audited.
	assert.Empty(t, audit.records)
}
