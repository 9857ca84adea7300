package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents a registered account. The credential hash is an argon2id
// digest; role claims are stored as a JSON string array.
type User struct {
	ID             string                      `gorm:"type:char(36);primaryKey" json:"id"`
	Username       string                      `gorm:"size:255;not null;uniqueIndex:idx_users_username" json:"username"`
	CredentialHash string                      `gorm:"size:512;not null" json:"-"`
	Roles          datatypes.JSONSlice[string] `gorm:"type:json" json:"roles"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// Session is an issued opaque session token. A session is active until its
// expiry passes or RevokedAt is set; neither state ever reverts.
type Session struct {
	Token     string `gorm:"type:char(64);primaryKey"`
	UserID    string `gorm:"type:char(36);not null;index"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Session
func (Session) TableName() string {
	return "sessions"
}
