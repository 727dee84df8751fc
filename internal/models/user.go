package models

import "time"

// User is the canonical identity record. Rows are created only when a
// pending signup is promoted or on first OAuth login, and are never deleted.
// Email and username are unique across all users. IDs are 64-bit integers
// but always serialize as decimal strings so they survive JSON consumers
// that parse numbers as floats.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Gender       string    `gorm:"size:20" json:"gender"`
	IsVerified   bool      `gorm:"default:false" json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Profile       *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	OAuthAccounts []OAuthAccount `gorm:"foreignKey:UserID" json:"-"`
}

// Profile holds the optional extended attributes attached 1:1 to a user.
type Profile struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	UserID       int64     `gorm:"not null;uniqueIndex" json:"user_id,string"`
	ProfilePic   *string   `gorm:"size:500" json:"profile_pic,omitempty"`
	Phone        string    `gorm:"size:20" json:"phone"`
	AddressLine1 string    `gorm:"size:255" json:"address_line1"`
	AddressLine2 *string   `gorm:"size:255" json:"address_line2,omitempty"`
	City         string    `gorm:"size:100" json:"city"`
	State        string    `gorm:"size:100" json:"state"`
	Country      string    `gorm:"size:100" json:"country"`
	Pin          string    `gorm:"size:20" json:"pin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
