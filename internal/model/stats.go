package model

// Statistics is a point-in-time rollup for one jurisdiction node. The counts
// are internally consistent per query but not an atomic snapshot across the
// several queries that produce them.
type Statistics struct {
	JurisdictionID   string  `json:"jurisdiction_id"`
	OfficeName       string  `json:"office_name,omitempty"`
	Level            Level   `json:"level"`
	FamilyCount      int     `json:"family_count"`
	CitizenCount     int     `json:"citizen_count"`
	Population       int     `json:"population"`
	PendingTransfers int     `json:"pending_transfers"`
	DivisionCount    int     `json:"division_count"`
	GNCount          int     `json:"gn_count"`
	PeoplePerFamily  float64 `json:"people_per_family"`
	FamiliesPerGN    float64 `json:"families_per_gn"`
	GNPerDivision    float64 `json:"gn_per_division"`
}

// StatsReport pairs a node's own rollup with one row per direct child, the
// shape every dashboard table renders.
type StatsReport struct {
	Node     Statistics   `json:"node"`
	Children []Statistics `json:"children"`
}
