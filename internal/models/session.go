package models

import "time"

// Session is an auth-service session held on the server behind an opaque
// cookie. Only presence and the bearer token are used by the rest of the app.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"index" json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `gorm:"not null" json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// ExpiresWithin reports whether the access token expires before now+leeway.
func (s *Session) ExpiresWithin(now time.Time, leeway time.Duration) bool {
	return !s.ExpiresAt.After(now.Add(leeway))
}

// BearerToken returns the access token, empty for a nil session.
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.AccessToken
}
