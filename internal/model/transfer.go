package model

import "time"

const (
	TransferPending  = "pending"
	TransferApproved = "approved"
	TransferRejected = "rejected"
)

// Transfer is a request to move a family between GN divisions. Only the
// direct pending state is tracked; a family has at most one pending transfer.
type Transfer struct {
	ID          string     `json:"id"`
	FamilyID    string     `json:"family_id"`
	FromGNID    string     `json:"from_gn_id"`
	ToGNID      string     `json:"to_gn_id"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	DecidedBy   string     `json:"decided_by,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type TransferQuery struct {
	GNIDs     []string // resolved scope intersection, applied to the source GN
	Status    string
	FamilyID  string
	ToGNID    string
	From      string
	To        string
	Sort      string
	Direction string
	Page      int
	Limit     int
}
