package model

import "time"

type Citizen struct {
	ID           string     `json:"id"`
	FamilyID     string     `json:"family_id"`
	NIC          string     `json:"nic"`
	FullName     string     `json:"full_name"`
	Gender       string     `json:"gender"`
	DateOfBirth  time.Time  `json:"date_of_birth"`
	Occupation   string     `json:"occupation,omitempty"`
	Relationship string     `json:"relationship,omitempty"`
	IsAlive      bool       `json:"is_alive"`
	DeceasedAt   *time.Time `json:"deceased_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CitizenQuery struct {
	GNIDs     []string // resolved scope intersection
	Search    string   // matches full name and NIC
	FamilyID  string
	Gender    string
	Alive     string
	From      string
	To        string
	Sort      string
	Direction string
	Page      int
	Limit     int
}
