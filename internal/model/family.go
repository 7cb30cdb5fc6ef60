package model

import "time"

type Family struct {
	ID          string    `json:"id"`
	GNID        string    `json:"gn_id"`
	HouseholdNo string    `json:"household_no"`
	Address     string    `json:"address"`
	// MemberCount is a display cache; statistics always use the live
	// citizen count.
	MemberCount int       `json:"member_count"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FamilyQuery carries the optional list filters a request may supply.
// Blank fields are skipped by the filter compiler.
type FamilyQuery struct {
	GNIDs     []string // resolved scope intersection, never raw client input
	Search    string   // matches household no and address
	GNID      string
	Active    string // "true"/"false", anything else ignored
	From      string
	To        string
	Sort      string
	Direction string
	Page      int
	Limit     int
}

type FamilyDetail struct {
	Family  Family    `json:"family"`
	Members []Citizen `json:"members"`
}
