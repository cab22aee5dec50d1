package domain

import "time"

// Revocation reasons.
const (
	RevokedByLogout  = "logout"
	RevokedByRefresh = "refresh"
)

// RevokedToken marks a token id as no longer acceptable. ExpiresAt is the
// token's natural expiry. The record must outlive the refresh window, which
// extends past exp, so purging keys off ExpiresAt plus that window.
type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	Reason    string
	RevokedAt time.Time
}

// IssuedToken is what authentication and refresh hand back to callers.
type IssuedToken struct {
	Token     string
	TokenID   string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
