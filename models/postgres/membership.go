package postgres

import "time"

// Membership statuses. Presence of a confirmed row means "joined", a
// rejected row means "explicitly declined" and the absence of a row means
// the user never joined or responded. There is no pending status.
const (
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

// ValidStatus reports whether s is one of the two persisted statuses.
func ValidStatus(s string) bool {
	return s == StatusConfirmed || s == StatusRejected
}

/*
 * 'Membership' links one user to one game (a 'user_games' row). It contains
 * references to Game and User.
 */
type Membership struct {
	// NOTE: composite primary key definition, at most one row per pair
	GameID    uint      `gorm:"primaryKey;not null"`
	UserID    string    `gorm:"primaryKey;size:36;not null;index"`
	Status    string    `gorm:"size:20;not null"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the game and the user's profile
	Game Game `gorm:"foreignKey:GameID"`
	User User `gorm:"foreignKey:UserID"`
}

func (Membership) TableName() string {
	return "user_games"
}
