package service

import (
	"context"

	"gn-registry/internal/metrics"
	"gn-registry/internal/model"
	"gn-registry/internal/scope"
)

// StatsService exposes the aggregation engine behind the access scope
// boundary. Dashboards are pure callers; no page recomputes its own rollups.
type StatsService struct {
	scopes scopeResolver
	engine statsEngine
	m      *metrics.Metrics
}

type statsEngine interface {
	Collect(ctx context.Context, tree *scope.Tree, nodeID string) (model.Statistics, error)
	Report(ctx context.Context, tree *scope.Tree, nodeID string) (model.StatsReport, error)
}

func NewStatsService(scopes scopeResolver, engine statsEngine, m *metrics.Metrics) *StatsService {
	return &StatsService{scopes: scopes, engine: engine, m: m}
}

// Report computes the rollup for a node plus one row per direct child. An
// empty node id targets the principal's own jurisdiction; anything outside
// the resolved scope is denied.
func (s *StatsService) Report(ctx context.Context, principal model.Principal, nodeID string) (model.StatsReport, error) {
	tree, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.StatsReport{}, err
	}

	if nodeID == "" {
		nodeID = sc.HomeID()
	}
	if !sc.Contains(nodeID) {
		return model.StatsReport{}, model.ErrAccessDenied
	}

	report, err := s.engine.Report(ctx, tree, nodeID)
	if err != nil {
		return model.StatsReport{}, err
	}

	if s.m != nil {
		s.m.StatsReports.Inc()
	}
	return report, nil
}

// Stats computes the rollup for a single node.
func (s *StatsService) Stats(ctx context.Context, principal model.Principal, nodeID string) (model.Statistics, error) {
	tree, sc, err := s.scopes.ResolveScope(ctx, principal)
	if err != nil {
		return model.Statistics{}, err
	}

	if nodeID == "" {
		nodeID = sc.HomeID()
	}
	if !sc.Contains(nodeID) {
		return model.Statistics{}, model.ErrAccessDenied
	}

	return s.engine.Collect(ctx, tree, nodeID)
}
