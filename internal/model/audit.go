package model

import "time"

// AuditActor identifies who performed an action. UserID is empty for system
// actions.
type AuditActor struct {
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Client    string `json:"client,omitempty"` // parsed browser/OS summary
}

// AuditRecord is one append-only entry in the audit trail. Records are never
// updated or deleted through normal flow.
type AuditRecord struct {
	ID         int64      `json:"id"`
	Actor      AuditActor `json:"actor"`
	ActionType string     `json:"action_type"`
	TableName  string     `json:"table_name"`
	RecordID   string     `json:"record_id,omitempty"`
	OldValues  any        `json:"old_values,omitempty"`
	NewValues  any        `json:"new_values,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditQuery struct {
	ActionType string
	TableName  string
	UserID     string
	Search     string // matches ip and user agent
	From       string
	To         string
	Sort       string
	Direction  string
	Page       int
	Limit      int
}
