package service

import (
	"context"
	"errors"

	"gn-registry/internal/model"
	"gn-registry/internal/scope"
)

// testNodes is the hierarchy every service test resolves scopes against:
//
//	national ── d1 ── v1 ── g1, g2
//	         └─ d2 ── v2 ── g3
func testNodes() []model.Jurisdiction {
	return []model.Jurisdiction{
		{ID: "national", Level: model.LevelNational, OfficeCode: "LK", IsActive: true},
		{ID: "d1", Level: model.LevelDistrict, ParentID: "national", OfficeCode: "D-01", IsActive: true},
		{ID: "d2", Level: model.LevelDistrict, ParentID: "national", OfficeCode: "D-02", IsActive: true},
		{ID: "v1", Level: model.LevelDivision, ParentID: "d1", OfficeCode: "V-01", IsActive: true},
		{ID: "v2", Level: model.LevelDivision, ParentID: "d2", OfficeCode: "V-02", IsActive: true},
		{ID: "g1", Level: model.LevelGN, ParentID: "v1", OfficeCode: "G-001", IsActive: true},
		{ID: "g2", Level: model.LevelGN, ParentID: "v1", OfficeCode: "G-002", IsActive: true},
		{ID: "g3", Level: model.LevelGN, ParentID: "v2", OfficeCode: "G-003", IsActive: true},
	}
}

type fakeScopes struct {
	tree *scope.Tree
}

func newFakeScopes() *fakeScopes {
	return &fakeScopes{tree: scope.NewTree(testNodes())}
}

func (f *fakeScopes) ResolveScope(_ context.Context, principal model.Principal) (*scope.Tree, *scope.Scope, error) {
	sc, err := scope.Resolve(f.tree, principal)
	if err != nil {
		return nil, nil, err
	}
	return f.tree, sc, nil
}

type recordedAudit struct {
	ActionType string
	TableName  string
	RecordID   string
	OldValues  any
	NewValues  any
}

type fakeRecorder struct {
	records []recordedAudit
}

func (f *fakeRecorder) Record(_ context.Context, _ model.AuditActor, actionType string, tableName string, recordID string, oldValues any, newValues any) {
	f.records = append(f.records, recordedAudit{
		ActionType: actionType,
		TableName:  tableName,
		RecordID:   recordID,
		OldValues:  oldValues,
		NewValues:  newValues,
	})
}

func (f *fakeRecorder) last() recordedAudit {
	if len(f.records) == 0 {
		return recordedAudit{}
	}
	return f.records[len(f.records)-1]
}

type fakeFamilyStore struct {
	families  map[string]model.Family
	lastQuery model.FamilyQuery
	createErr error
	setErr    error
}

func newFakeFamilyStore(families ...model.Family) *fakeFamilyStore {
	s := &fakeFamilyStore{families: map[string]model.Family{}}
	for _, f := range families {
		s.families[f.ID] = f
	}
	return s
}

func (s *fakeFamilyStore) FindByID(_ context.Context, id string) (model.Family, error) {
	f, ok := s.families[id]
	if !ok {
		return model.Family{}, model.ErrFamilyNotFound
	}
	return f, nil
}

func (s *fakeFamilyStore) List(_ context.Context, q model.FamilyQuery) ([]model.Family, model.Meta, error) {
	s.lastQuery = q
	return []model.Family{}, model.Meta{Page: 1, Limit: 25}, nil
}

func (s *fakeFamilyStore) Members(_ context.Context, _ string) ([]model.Citizen, error) {
	return []model.Citizen{}, nil
}

func (s *fakeFamilyStore) Create(_ context.Context, f model.Family) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.families[f.ID] = f
	return nil
}

func (s *fakeFamilyStore) Update(_ context.Context, f model.Family) error {
	s.families[f.ID] = f
	return nil
}

func (s *fakeFamilyStore) SetActive(_ context.Context, id string, active bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	f, ok := s.families[id]
	if !ok {
		return model.ErrFamilyNotFound
	}
	f.IsActive = active
	s.families[id] = f
	return nil
}

func (s *fakeFamilyStore) SyncMemberCount(_ context.Context, _ string) error {
	return nil
}

func (s *fakeFamilyStore) MoveToGN(_ context.Context, _ string, _ string) error {
	return nil
}

var errStoreDown = errors.New("store down")
