package models

import "time"

// OtpVerification is a one-time code with a 10-minute lifetime. Signup codes
// are keyed by email, password-reset codes by user id. Issuing a new code
// deletes any prior rows for the same subject in the same transaction, so at
// most one code is ever live per subject. Rows are deleted on successful
// verification; expired leftovers are swept by the retention cleanup.
type OtpVerification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Otp       string    `gorm:"size:10;not null" json:"-"`
	Email     *string   `gorm:"size:255;index" json:"email,omitempty"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
