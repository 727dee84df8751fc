package models

import "time"

// PendingUser stages a signup between submission and OTP confirmation. The
// password is already hashed at this point. Email and username carry unique
// indexes so concurrent signups for the same identity race to a single
// winner at the constraint instead of producing duplicate staging rows.
// Rows are removed atomically with the matching OTP when promotion succeeds;
// abandoned rows are swept by the retention cleanup.
type PendingUser struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Gender       string    `gorm:"size:20" json:"gender"`
	ProfilePic   *string   `gorm:"size:500" json:"profile_pic,omitempty"`
	Phone        string    `gorm:"size:20" json:"phone"`
	AddressLine1 string    `gorm:"size:255" json:"address_line1"`
	AddressLine2 *string   `gorm:"size:255" json:"address_line2,omitempty"`
	City         string    `gorm:"size:100" json:"city"`
	State        string    `gorm:"size:100" json:"state"`
	Country      string    `gorm:"size:100" json:"country"`
	Pin          string    `gorm:"size:20" json:"pin"`
	CreatedAt    time.Time `json:"created_at"`
}
