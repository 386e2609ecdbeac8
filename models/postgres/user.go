package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'User' is the identity record created on the first successful OTP
 * verification. The id and the email/phone identifier are immutable;
 * the name fields can be updated through the profile endpoint.
 * Referenced by Membership.
 */
type User struct {
	ID        string    `gorm:"primaryKey;size:36;not null"`
	FirstName string    `gorm:"size:100"`
	LastName  string    `gorm:"size:100"`
	Email     *string   `gorm:"size:100;uniqueIndex"`
	Phone     *string   `gorm:"size:30;uniqueIndex"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the games the user joined or responded to
	Memberships []Membership `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
