package model

import "time"

// Level is the tier of a jurisdiction node in the administrative hierarchy.
type Level string

const (
	LevelNational Level = "national"
	LevelDistrict Level = "district"
	LevelDivision Level = "division"
	LevelGN       Level = "gn"
)

var levelOrder = map[Level]int{
	LevelNational: 0,
	LevelDistrict: 1,
	LevelDivision: 2,
	LevelGN:       3,
}

// ParseLevel returns the level for a raw string, or false when it names no tier.
func ParseLevel(raw string) (Level, bool) {
	l := Level(raw)
	_, ok := levelOrder[l]
	return l, ok
}

// ChildLevel returns the tier exactly one below l. The hierarchy never skips
// levels, so a gn node has no child level.
func (l Level) ChildLevel() (Level, bool) {
	switch l {
	case LevelNational:
		return LevelDistrict, true
	case LevelDistrict:
		return LevelDivision, true
	case LevelDivision:
		return LevelGN, true
	default:
		return "", false
	}
}

type Jurisdiction struct {
	ID         string    `json:"id"`
	Level      Level     `json:"level"`
	ParentID   string    `json:"parent_id,omitempty"`
	OfficeCode string    `json:"office_code"`
	OfficeName string    `json:"office_name"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Principal is the authenticated caller as seen by the core: role plus home
// jurisdiction. moha principals have no home jurisdiction (implicit national
// root). It is passed explicitly into services; nothing reads ambient state.
type Principal struct {
	UserID         string
	Role           string
	JurisdictionID string
}

const (
	RoleMOHA     = "moha"
	RoleDistrict = "district"
	RoleDivision = "division"
	RoleGN       = "gn"
)

// RoleLevel maps an account role to the tier its home jurisdiction sits at.
func RoleLevel(role string) (Level, bool) {
	switch role {
	case RoleMOHA:
		return LevelNational, true
	case RoleDistrict:
		return LevelDistrict, true
	case RoleDivision:
		return LevelDivision, true
	case RoleGN:
		return LevelGN, true
	default:
		return "", false
	}
}
