package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gn-registry/internal/model"
)

type fakeCitizenStore struct {
	citizens  map[string]model.Citizen
	lastQuery model.CitizenQuery
}

func newFakeCitizenStore(citizens ...model.Citizen) *fakeCitizenStore {
	s := &fakeCitizenStore{citizens: map[string]model.Citizen{}}
	for _, c := range citizens {
		s.citizens[c.ID] = c
	}
	return s
}

func (s *fakeCitizenStore) FindByID(_ context.Context, id string) (model.Citizen, error) {
	c, ok := s.citizens[id]
	if !ok {
		return model.Citizen{}, model.ErrCitizenNotFound
	}
	return c, nil
}

func (s *fakeCitizenStore) List(_ context.Context, q model.CitizenQuery) ([]model.Citizen, model.Meta, error) {
	s.lastQuery = q
	return []model.Citizen{}, model.Meta{Page: 1, Limit: 25}, nil
}

func (s *fakeCitizenStore) Create(_ context.Context, c model.Citizen) error {
	s.citizens[c.ID] = c
	return nil
}

func (s *fakeCitizenStore) Update(_ context.Context, c model.Citizen) error {
	s.citizens[c.ID] = c
	return nil
}

func (s *fakeCitizenStore) MarkDeceased(_ context.Context, id string, at time.Time) error {
	c := s.citizens[id]
	c.IsAlive = false
	c.DeceasedAt = &at
	s.citizens[id] = c
	return nil
}

type fakeFamilyFinder struct {
	families map[string]model.Family
	synced   []string
	syncErr  error
}

func newFakeFamilyFinder(families ...model.Family) *fakeFamilyFinder {
	s := &fakeFamilyFinder{families: map[string]model.Family{}}
	for _, f := range families {
		s.families[f.ID] = f
	}
	return s
}

func (s *fakeFamilyFinder) FindByID(_ context.Context, id string) (model.Family, error) {
	f, ok := s.families[id]
	if !ok {
		return model.Family{}, model.ErrFamilyNotFound
	}
	return f, nil
}

func (s *fakeFamilyFinder) SyncMemberCount(_ context.Context, familyID string) error {
	if s.syncErr != nil {
		return s.syncErr
	}
	s.synced = append(s.synced, familyID)
	return nil
}

func testBirthDate() time.Time {
	return time.Date(1988, time.March, 12, 0, 0, 0, 0, time.UTC)
}

func TestCitizenService_List_Scoping(t *testing.T) {
	t.Run("moha without a filter sees everything", func(t *testing.T) {
		store := newFakeCitizenStore()
		svc := NewCitizenService(store, newFakeFamilyFinder(), newFakeScopes(), &fakeRecorder{})

		_, _, err := svc.List(context.Background(), model.Principal{Role: model.RoleMOHA}, "", model.CitizenQuery{})
		require.NoError(t, err)
		assert.Nil(t, store.lastQuery.GNIDs)
	})

	t.Run("a division officer is pinned to their divisions", func(t *testing.T) {
		store := newFakeCitizenStore()
		svc := NewCitizenService(store, newFakeFamilyFinder(), newFakeScopes(), &fakeRecorder{})
		principal := model.Principal{Role: model.RoleDivision, JurisdictionID: "v1"}

		_, _, err := svc.List(context.Background(), principal, "", model.CitizenQuery{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"g1", "g2"}, store.lastQuery.GNIDs)
	})

	t.Run("an out-of-scope filter yields an empty result, not an error", func(t *testing.T) {
		store := newFakeCitizenStore()
		svc := NewCitizenService(store, newFakeFamilyFinder(), newFakeScopes(), &fakeRecorder{})
		principal := model.Principal{Role: model.RoleDivision, JurisdictionID: "v1"}

		_, _, err := svc.List(context.Background(), principal, "g3", model.CitizenQuery{})
		require.NoError(t, err)
		assert.NotNil(t, store.lastQuery.GNIDs)
		assert.Empty(t, store.lastQuery.GNIDs)
	})
}

func TestCitizenService_Get(t *testing.T) {
	family := model.Family{ID: "f1", GNID: "g1"}
	citizen := model.Citizen{ID: "c1", FamilyID: "f1", FullName: "Nimal Perera", IsAlive: true}
	svc := NewCitizenService(newFakeCitizenStore(citizen), newFakeFamilyFinder(family), newFakeScopes(), &fakeRecorder{})

	t.Run("visibility follows the owning family's division", func(t *testing.T) {
		got, err := svc.Get(context.Background(), model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", got.FullName)

		_, err = svc.Get(context.Background(), model.Principal{Role: model.RoleGN, JurisdictionID: "g2"}, "c1")
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("unknown citizen", func(t *testing.T) {
		_, err := svc.Get(context.Background(), model.Principal{Role: model.RoleMOHA}, "missing")
		assert.ErrorIs(t, err, model.ErrCitizenNotFound)
	})
}

func TestCitizenService_Create(t *testing.T) {
	actor := model.AuditActor{UserID: "u1", Role: model.RoleGN}
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}

	t.Run("registers an alive member and refreshes the family count", func(t *testing.T) {
		store := newFakeCitizenStore()
		families := newFakeFamilyFinder(model.Family{ID: "f1", GNID: "g1"})
		audit := &fakeRecorder{}
		svc := NewCitizenService(store, families, newFakeScopes(), audit)

		created, err := svc.Create(context.Background(), principal, actor, model.Citizen{
			FamilyID:    "f1",
			FullName:    "  Kamala Silva  ",
			NIC:         "885551234V",
			Gender:      "female",
			DateOfBirth: testBirthDate(),
		})
		require.NoError(t, err)

		assert.Equal(t, "Kamala Silva", created.FullName)
		assert.True(t, created.IsAlive)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, []string{"f1"}, families.synced)

		rec := audit.last()
		assert.Equal(t, "create", rec.ActionType)
		assert.Equal(t, "citizens", rec.TableName)
	})

	t.Run("a family in another division is denied", func(t *testing.T) {
		families := newFakeFamilyFinder(model.Family{ID: "f9", GNID: "g3"})
		svc := NewCitizenService(newFakeCitizenStore(), families, newFakeScopes(), &fakeRecorder{})

		_, err := svc.Create(context.Background(), principal, actor, model.Citizen{
			FamilyID: "f9", FullName: "Out Of Scope", DateOfBirth: testBirthDate(),
		})
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("missing fields are rejected up front", func(t *testing.T) {
		svc := NewCitizenService(newFakeCitizenStore(), newFakeFamilyFinder(), newFakeScopes(), &fakeRecorder{})

		_, err := svc.Create(context.Background(), principal, actor, model.Citizen{FamilyID: "f1", DateOfBirth: testBirthDate()})
		assertBadRequest(t, err)

		_, err = svc.Create(context.Background(), principal, actor, model.Citizen{FamilyID: "f1", FullName: "No Birthday"})
		assertBadRequest(t, err)
	})

	t.Run("a failed count sync does not fail the registration", func(t *testing.T) {
		families := newFakeFamilyFinder(model.Family{ID: "f1", GNID: "g1"})
		families.syncErr = errStoreDown
		svc := NewCitizenService(newFakeCitizenStore(), families, newFakeScopes(), &fakeRecorder{})

		_, err := svc.Create(context.Background(), principal, actor, model.Citizen{
			FamilyID: "f1", FullName: "Kamala Silva", DateOfBirth: testBirthDate(),
		})
		require.NoError(t, err)
	})
}

func TestCitizenService_Update(t *testing.T) {
	actor := model.AuditActor{UserID: "u1", Role: model.RoleGN}
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}
	existing := model.Citizen{
		ID: "c1", FamilyID: "f1", FullName: "Nimal Perera", NIC: "700001234V",
		Gender: "male", DateOfBirth: testBirthDate(), Occupation: "farmer", IsAlive: true,
	}

	store := newFakeCitizenStore(existing)
	families := newFakeFamilyFinder(model.Family{ID: "f1", GNID: "g1"})
	audit := &fakeRecorder{}
	svc := NewCitizenService(store, families, newFakeScopes(), audit)

	updated, err := svc.Update(context.Background(), principal, actor, model.Citizen{
		ID:         "c1",
		Occupation: "teacher",
	})
	require.NoError(t, err)

	// Blank fields keep their stored values.
	assert.Equal(t, "teacher", updated.Occupation)
	assert.Equal(t, "Nimal Perera", updated.FullName)
	assert.Equal(t, "700001234V", updated.NIC)
	assert.Equal(t, "update", audit.last().ActionType)
}

func TestCitizenService_MarkDeceased(t *testing.T) {
	actor := model.AuditActor{UserID: "u1", Role: model.RoleGN}
	principal := model.Principal{Role: model.RoleGN, JurisdictionID: "g1"}

	store := newFakeCitizenStore(model.Citizen{ID: "c1", FamilyID: "f1", FullName: "Nimal Perera", IsAlive: true})
	families := newFakeFamilyFinder(model.Family{ID: "f1", GNID: "g1"})
	audit := &fakeRecorder{}
	svc := NewCitizenService(store, families, newFakeScopes(), audit)

	updated, err := svc.MarkDeceased(context.Background(), principal, actor, "c1")
	require.NoError(t, err)

	assert.False(t, updated.IsAlive)
	require.NotNil(t, updated.DeceasedAt)
	assert.False(t, store.citizens["c1"].IsAlive)
	assert.Equal(t, []string{"f1"}, families.synced)

	rec := audit.last()
	assert.Equal(t, "status_change", rec.ActionType)
	assert.Equal(t, map[string]any{"is_alive": false}, rec.NewValues)
}
