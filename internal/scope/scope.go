// Package scope derives the set of jurisdiction ids a principal may query.
// Resolution is a pure function of a tree snapshot and the principal; client
// supplied jurisdiction filters are intersected with the resolved set, never
// substituted for it.
package scope

import (
	"sort"

	"gn-registry/internal/model"
)

// Tree is an in-memory snapshot of the jurisdiction hierarchy.
type Tree struct {
	nodes    map[string]model.Jurisdiction
	children map[string][]string
	rootID   string
}

// NewTree indexes a flat node list. Child lists are kept in office-code order
// so traversals are deterministic.
func NewTree(nodes []model.Jurisdiction) *Tree {
	t := &Tree{
		nodes:    make(map[string]model.Jurisdiction, len(nodes)),
		children: make(map[string][]string),
	}

	for _, node := range nodes {
		t.nodes[node.ID] = node
		if node.Level == model.LevelNational {
			t.rootID = node.ID
			continue
		}
		t.children[node.ParentID] = append(t.children[node.ParentID], node.ID)
	}

	for parent := range t.children {
		ids := t.children[parent]
		sort.Slice(ids, func(i, j int) bool {
			return t.nodes[ids[i]].OfficeCode < t.nodes[ids[j]].OfficeCode
		})
	}

	return t
}

func (t *Tree) Node(id string) (model.Jurisdiction, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

func (t *Tree) RootID() string {
	return t.rootID
}

// Children returns the direct children of a node.
func (t *Tree) Children(id string) []model.Jurisdiction {
	ids := t.children[id]
	out := make([]model.Jurisdiction, 0, len(ids))
	for _, childID := range ids {
		out = append(out, t.nodes[childID])
	}
	return out
}

// Descendants returns the node and everything below it.
func (t *Tree) Descendants(id string) []string {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}

	out := []string{id}
	for cursor := 0; cursor < len(out); cursor++ {
		out = append(out, t.children[out[cursor]]...)
	}
	return out
}

// GNs returns the GN-level leaves under a node (including the node itself
// when it is a GN), sorted for stable SQL parameters.
func (t *Tree) GNs(id string) []string {
	var out []string
	for _, descID := range t.Descendants(id) {
		if t.nodes[descID].Level == model.LevelGN {
			out = append(out, descID)
		}
	}
	sort.Strings(out)
	return out
}

// Scope is the closed jurisdiction id set one principal may query.
type Scope struct {
	tree   *Tree
	homeID string
	ids    map[string]struct{}
}

// Resolve derives a principal's scope from the tree snapshot. moha sees the
// entire tree from the national root; every other role sees its home node and
// all descendants. A home jurisdiction missing from the tree means an
// orphaned account and resolution fails.
func Resolve(t *Tree, principal model.Principal) (*Scope, error) {
	homeID := principal.JurisdictionID
	if principal.Role == model.RoleMOHA {
		homeID = t.rootID
	}

	if _, ok := t.nodes[homeID]; !ok || homeID == "" {
		return nil, model.ErrScopeUnresolved
	}

	ids := make(map[string]struct{})
	for _, id := range t.Descendants(homeID) {
		ids[id] = struct{}{}
	}

	return &Scope{tree: t, homeID: homeID, ids: ids}, nil
}

// HomeID is the jurisdiction the scope is rooted at.
func (s *Scope) HomeID() string {
	return s.homeID
}

// Contains reports whether a jurisdiction id is inside the scope.
func (s *Scope) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// GNIDs returns every GN division inside the scope.
func (s *Scope) GNIDs() []string {
	return s.tree.GNs(s.homeID)
}

// Narrow intersects an optional requested jurisdiction with the scope and
// returns the GN divisions of the intersection. An out-of-scope request
// yields an empty set, which is an empty result, not an error.
func (s *Scope) Narrow(requestedID string) []string {
	if requestedID == "" {
		return s.GNIDs()
	}
	if !s.Contains(requestedID) {
		return []string{}
	}
	return s.tree.GNs(requestedID)
}
