package domain

import "time"

const (
	RoleMember  = "member"
	RoleManager = "manager"
)

// User is the identity record owned by the repository.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GivenName    string    `json:"given_name"`
	FamilyName   string    `json:"family_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one of the two known roles.
func ValidRole(role string) bool {
	return role == RoleMember || role == RoleManager
}

// NormalizeRole coerces an empty role to member. Records written before the
// role field was introduced carry an empty string.
func NormalizeRole(role string) string {
	if role == "" {
		return RoleMember
	}
	return role
}
