// Package stats computes jurisdiction rollups: leaf counts come from single
// grouped queries over the descendant GN id set, and aggregation to any level
// is a pure function over those tallies.
package stats

import (
	"context"
	"log/slog"

	"gn-registry/internal/model"
	"gn-registry/internal/query"
	"gn-registry/internal/scope"
)

// Tally holds the leaf-level counts for one GN division. Citizens counts
// live citizens only; the family member_count cache is never consulted.
type Tally struct {
	Families int
	Citizens int
	Pending  int
}

type Engine struct {
	db query.Querier
}

func NewEngine(db query.Querier) *Engine {
	return &Engine{db: db}
}

// Collect computes the statistics record for one jurisdiction node.
func (e *Engine) Collect(ctx context.Context, tree *scope.Tree, nodeID string) (model.Statistics, error) {
	if _, ok := tree.Node(nodeID); !ok {
		return model.Statistics{}, model.ErrJurisdictionNotFound
	}

	tallies := e.gnTallies(ctx, tree.GNs(nodeID))
	return Rollup(tree, nodeID, tallies)
}

// Report computes the node's rollup plus one row per direct child from a
// single pair of grouped queries.
func (e *Engine) Report(ctx context.Context, tree *scope.Tree, nodeID string) (model.StatsReport, error) {
	node, ok := tree.Node(nodeID)
	if !ok {
		return model.StatsReport{}, model.ErrJurisdictionNotFound
	}

	tallies := e.gnTallies(ctx, tree.GNs(nodeID))

	own, err := Rollup(tree, nodeID, tallies)
	if err != nil {
		return model.StatsReport{}, err
	}

	report := model.StatsReport{Node: own, Children: []model.Statistics{}}
	if node.Level == model.LevelGN {
		return report, nil
	}

	for _, child := range tree.Children(nodeID) {
		childStats, childErr := Rollup(tree, child.ID, tallies)
		if childErr != nil {
			continue
		}
		report.Children = append(report.Children, childStats)
	}

	return report, nil
}

// gnTallies fetches leaf counts for a GN id set. A failing query degrades its
// numbers to zero with a logged warning; statistics are supplementary and a
// storage fault here must not fail the page.
func (e *Engine) gnTallies(ctx context.Context, gnIDs []string) map[string]Tally {
	tallies := make(map[string]Tally, len(gnIDs))
	if len(gnIDs) == 0 {
		return tallies
	}

	rows, err := e.db.Query(ctx,
		`SELECT f.gn_id, COUNT(DISTINCT f.id), COUNT(c.id)
		 FROM families f
		 LEFT JOIN citizens c ON c.family_id = f.id AND c.is_alive
		 WHERE f.gn_id = ANY($1) AND f.is_active
		 GROUP BY f.gn_id`, gnIDs)
	if err != nil {
		slog.Warn("stats: family tally query failed", "error", err)
	} else {
		for rows.Next() {
			var gnID string
			var families, citizens int
			if scanErr := rows.Scan(&gnID, &families, &citizens); scanErr != nil {
				slog.Warn("stats: family tally scan failed", "error", scanErr)
				break
			}
			t := tallies[gnID]
			t.Families = families
			t.Citizens = citizens
			tallies[gnID] = t
		}
		rows.Close()
	}

	rows, err = e.db.Query(ctx,
		`SELECT from_gn_id, COUNT(*)
		 FROM transfers
		 WHERE status = $1 AND from_gn_id = ANY($2)
		 GROUP BY from_gn_id`, model.TransferPending, gnIDs)
	if err != nil {
		slog.Warn("stats: pending transfer query failed", "error", err)
		return tallies
	}
	for rows.Next() {
		var gnID string
		var pending int
		if scanErr := rows.Scan(&gnID, &pending); scanErr != nil {
			slog.Warn("stats: pending transfer scan failed", "error", scanErr)
			break
		}
		t := tallies[gnID]
		t.Pending = pending
		tallies[gnID] = t
	}
	rows.Close()

	return tallies
}

// Rollup aggregates leaf tallies up to a node. It sums only the GN divisions
// under the node, so one tally map can serve a node and all its children.
func Rollup(tree *scope.Tree, nodeID string, tallies map[string]Tally) (model.Statistics, error) {
	node, ok := tree.Node(nodeID)
	if !ok {
		return model.Statistics{}, model.ErrJurisdictionNotFound
	}

	out := model.Statistics{
		JurisdictionID: node.ID,
		OfficeName:     node.OfficeName,
		Level:          node.Level,
	}

	gnIDs := tree.GNs(nodeID)
	for _, gnID := range gnIDs {
		t := tallies[gnID]
		out.FamilyCount += t.Families
		out.CitizenCount += t.Citizens
		out.PendingTransfers += t.Pending
	}
	out.Population = out.CitizenCount
	out.GNCount = len(gnIDs)

	for _, descID := range tree.Descendants(nodeID) {
		if desc, found := tree.Node(descID); found && desc.Level == model.LevelDivision {
			out.DivisionCount++
		}
	}

	out.PeoplePerFamily = ratio(out.CitizenCount, out.FamilyCount)
	out.FamiliesPerGN = ratio(out.FamilyCount, out.GNCount)
	out.GNPerDivision = ratio(out.GNCount, out.DivisionCount)

	return out, nil
}

// ratio guards division by zero; an undefined ratio is reported as zero.
func ratio(numerator int, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
