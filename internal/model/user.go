package model

import "time"

type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	JurisdictionID      string     `json:"jurisdiction_id,omitempty"`
	IsActive            bool       `json:"is_active"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Principal returns the jurisdiction principal this account acts as.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role, JurisdictionID: u.JurisdictionID}
}

type AuthClaims struct {
	UserID         string `json:"sub"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	JurisdictionID string `json:"jur,omitempty"`
	Type           string `json:"typ"`
	TokenID        string `json:"jti"`
}

// Principal returns the jurisdiction principal carried by a validated token.
func (c *AuthClaims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role, JurisdictionID: c.JurisdictionID}
}

type AuthUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	JurisdictionID string `json:"jurisdiction_id,omitempty"`
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}

type UserQuery struct {
	Search         string // matches username
	Role           string
	JurisdictionID string
	Active         string
	Sort           string
	Direction      string
	Page           int
	Limit          int
}
