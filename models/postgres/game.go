package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Location is the typed shape of the games.location JSONB column.
// It is validated and converted at the repository boundary instead of
// passing raw query results through.
type Location struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// JSON encodes the location for storage.
func (l Location) JSON() (datatypes.JSON, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

/*
 * 'Game' is a pickup-game event: a place, a date and the number of
 * players wanted. Games are never mutated after creation.
 */
type Game struct {
	ID              uint           `gorm:"primaryKey;autoIncrement"`
	Date            time.Time      `gorm:"not null;index:idx_games_date"`
	PlayersRequired int            `gorm:"not null"`
	Location        datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the players in the game
	Memberships []Membership `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// LocationData decodes the stored JSONB column into its typed form.
func (g *Game) LocationData() (Location, error) {
	var loc Location
	if len(g.Location) == 0 {
		return loc, nil
	}
	err := json.Unmarshal(g.Location, &loc)
	return loc, err
}
