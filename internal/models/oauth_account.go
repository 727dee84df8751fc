package models

import "time"

// OAuthAccount links an external identity provider account to a local user.
// The (provider, provider_id) pair is unique: one provider identity belongs
// to at most one user. Rows are created lazily on first login from a given
// provider identity.
type OAuthAccount struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Provider   string    `gorm:"size:50;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider"`
	ProviderID string    `gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_subject" json:"provider_id"`
	UserID     int64     `gorm:"not null;index" json:"user_id,string"`
	CreatedAt  time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
