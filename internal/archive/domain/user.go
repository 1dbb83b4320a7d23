package domain

import "time"

// Archive roles. Assignments live on the user record; the wire format is the
// lowercase name.
const (
	RoleDepositor  = "depositor"
	RoleCurator    = "curator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User is an archive account linked to an external identity provider.
// ExternalID is the provider-side subject (an ORCID iD for orcid).
type User struct {
	ID          string
	Provider    string
	ExternalID  string
	DisplayName string
	Roles       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Caller is the authenticated identity a request acts as, extracted from the
// verified access token.
type Caller struct {
	UserID string
	Roles  []string
}

func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanCurate reports whether the caller may read depositions they do not own.
func (c Caller) CanCurate() bool {
	return c.HasRole(RoleCurator) || c.HasRole(RoleAdmin) || c.HasRole(RoleSuperAdmin)
}
