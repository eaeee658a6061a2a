package models

import "time"

// Share is one ephemeral text record. CredentialRecord holds the hashed
// access password when one was set; MaxViews == 0 means unlimited and a
// zero ExpiresAt means the share never expires.
type Share struct {
	ID               string    `json:"id"`
	Content          string    `json:"content"`
	CredentialRecord string    `json:"-"`
	MaxViews         int       `json:"max_views,omitempty"`
	ViewCount        int       `json:"view_count"`
	ExpiresAt        time.Time `json:"expires_at,omitzero"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasPassword reports whether a secret must be verified before the
// content may be returned.
func (s *Share) HasPassword() bool {
	return s.CredentialRecord != ""
}

// Expired reports whether the share's expiry, if set, is at or before now.
func (s *Share) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// Exhausted reports whether the view quota, if set, has been used up.
func (s *Share) Exhausted() bool {
	return s.MaxViews > 0 && s.ViewCount >= s.MaxViews
}
