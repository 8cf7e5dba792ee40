package domain

import "time"

type Account struct {
	ID           string `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName  string `gorm:"not null" json:"display_name"`
	// Empty for accounts provisioned through federated login. Such accounts
	// can never pass password authentication.
	PasswordHash string `gorm:"type:text" json:"-"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Photos        []Photo        `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"photos"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "account" }

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool { return a.PasswordHash != "" }

// MainPhotoURL returns the URL of the photo marked main, if any.
func (a *Account) MainPhotoURL() *string {
	for i := range a.Photos {
		if a.Photos[i].IsMain {
			return &a.Photos[i].URL
		}
	}
	return nil
}

// FindRefreshToken scans the owned collection for an exact token value.
func (a *Account) FindRefreshToken(value string) *RefreshToken {
	for i := range a.RefreshTokens {
		if a.RefreshTokens[i].Value == value {
			return &a.RefreshTokens[i]
		}
	}
	return nil
}

// RefreshToken is a persisted long-lived credential. Tokens are append-only:
// superseded ones are revoked and linked to their replacement, never deleted.
type RefreshToken struct {
	ID           string     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID    string     `gorm:"type:uuid;index;not null" json:"account_id"`
	Value        string     `gorm:"type:text;not null" json:"-"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at"`
	ReplacedByID *string    `gorm:"type:uuid" json:"replaced_by_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (RefreshToken) TableName() string { return "account_refresh_token" }

func (t *RefreshToken) IsExpired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

func (t *RefreshToken) IsRevoked() bool { return t.RevokedAt != nil }

func (t *RefreshToken) IsActive(now time.Time) bool { return !t.IsRevoked() && !t.IsExpired(now) }

type Photo struct {
	// Federated profile pictures use a "fb_" prefixed ID so they never
	// collide with locally uploaded photo IDs.
	ID        string `gorm:"primaryKey" json:"id"`
	AccountID string `gorm:"type:uuid;index;not null" json:"account_id"`
	URL       string `gorm:"not null" json:"url"`
	IsMain    bool   `json:"is_main"`
}

func (Photo) TableName() string { return "account_photo" }
