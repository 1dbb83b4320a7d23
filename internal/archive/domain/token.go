package domain

import "time"

// TokenPair is what the auth endpoints hand back: a short-lived JWT access
// token plus the opaque refresh token that obtained it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // "Bearer"
	ExpiresIn    time.Duration
}

// RefreshToken is the stored refresh token record. Only the SHA-256
// fingerprint of the opaque value is persisted.
//
// FamilyID groups every token descended from one login. Rotation revokes the
// presented token and mints a successor in the same family; presenting an
// already-revoked member is treated as theft and revokes the whole family.
type RefreshToken struct {
	ID        string
	UserID    string
	FamilyID  string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
