package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gn-registry/internal/model"
)

type talliesRow struct {
	scan func(dest ...any)
}

// fakeTallyRows plays one canned grouped-query result set per Query call.
type fakeTallyRows struct {
	rows []talliesRow
	idx  int
}

func (r *fakeTallyRows) Close()                                       {}
func (r *fakeTallyRows) Err() error                                   { return nil }
func (r *fakeTallyRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeTallyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeTallyRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeTallyRows) RawValues() [][]byte                          { return nil }
func (r *fakeTallyRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeTallyRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeTallyRows) Scan(dest ...any) error {
	r.rows[r.idx-1].scan(dest...)
	return nil
}

type fakeTallyDB struct {
	results []*fakeTallyRows
	errs    []error
	calls   int
}

func (db *fakeTallyDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	call := db.calls
	db.calls++
	if call < len(db.errs) && db.errs[call] != nil {
		return nil, db.errs[call]
	}
	if call < len(db.results) {
		return db.results[call], nil
	}
	return &fakeTallyRows{}, nil
}

func (db *fakeTallyDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

func familyRow(gnID string, families int, citizens int) talliesRow {
	return talliesRow{scan: func(dest ...any) {
		*(dest[0].(*string)) = gnID
		*(dest[1].(*int)) = families
		*(dest[2].(*int)) = citizens
	}}
}

func pendingRow(gnID string, pending int) talliesRow {
	return talliesRow{scan: func(dest ...any) {
		*(dest[0].(*string)) = gnID
		*(dest[1].(*int)) = pending
	}}
}

func TestEngine_Collect(t *testing.T) {
	tree := testTree()

	t.Run("sums grouped query results over the subtree", func(t *testing.T) {
		db := &fakeTallyDB{results: []*fakeTallyRows{
			{rows: []talliesRow{familyRow("g1", 3, 12), familyRow("g2", 5, 18)}},
			{rows: []talliesRow{pendingRow("g1", 1)}},
		}}
		engine := NewEngine(db)

		s, err := engine.Collect(context.Background(), tree, "v1")
		require.NoError(t, err)

		assert.Equal(t, 8, s.FamilyCount)
		assert.Equal(t, 30, s.CitizenCount)
		assert.Equal(t, 1, s.PendingTransfers)
		assert.Equal(t, 2, db.calls)
	})

	t.Run("a failing tally query degrades its numbers to zero", func(t *testing.T) {
		db := &fakeTallyDB{errs: []error{errors.New("connection reset"), errors.New("connection reset")}}
		engine := NewEngine(db)

		s, err := engine.Collect(context.Background(), tree, "v1")
		require.NoError(t, err)

		// Structure still comes from the tree; only the counts are lost.
		assert.Equal(t, "v1", s.JurisdictionID)
		assert.Equal(t, 2, s.GNCount)
		assert.Zero(t, s.FamilyCount)
		assert.Zero(t, s.CitizenCount)
		assert.Zero(t, s.PendingTransfers)
	})

	t.Run("a failing pending query keeps the family counts", func(t *testing.T) {
		db := &fakeTallyDB{
			results: []*fakeTallyRows{{rows: []talliesRow{familyRow("g1", 3, 12)}}},
			errs:    []error{nil, errors.New("connection reset")},
		}
		engine := NewEngine(db)

		s, err := engine.Collect(context.Background(), tree, "v1")
		require.NoError(t, err)

		assert.Equal(t, 3, s.FamilyCount)
		assert.Equal(t, 12, s.CitizenCount)
		assert.Zero(t, s.PendingTransfers)
	})

	t.Run("unknown node is the only hard error", func(t *testing.T) {
		engine := NewEngine(&fakeTallyDB{})
		_, err := engine.Collect(context.Background(), tree, "nope")
		assert.ErrorIs(t, err, model.ErrJurisdictionNotFound)
	})
}
