package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// Role is the local role granted to a provisioned user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDoctor    Role = "DOCTOR"
	RoleSecretary Role = "SECRETARY"
	RoleUser      Role = "USER"
)

// rolePriority lists the roles derivable from token groups, strongest first.
var rolePriority = []Role{RoleAdmin, RoleDoctor, RoleSecretary}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleSecretary, RoleUser:
		return true
	}
	return false
}

// RoleFromGroups picks the strongest role whose name appears in groups,
// compared case-insensitively. No match yields RoleUser.
func RoleFromGroups(groups []string) Role {
	for _, role := range rolePriority {
		for _, g := range groups {
			if strings.EqualFold(g, string(role)) {
				return role
			}
		}
	}
	return RoleUser
}

// User is the local identity record of an external principal.
// It is created once per ExternalID and never updated from later tokens.
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"externalId"`
	Username   string    `db:"username" json:"username"`
	Email      string    `db:"email" json:"email"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// UserFilter holds the optional filters of the user listing.
type UserFilter struct {
	Username string
	Email    string
	Role     *Role
}

const placeholderLen = 8

func shortID(externalID string) string {
	if len(externalID) > placeholderLen {
		return externalID[:placeholderLen]
	}
	return externalID
}

// PlaceholderUsername is used when the token carries no username claim.
func PlaceholderUsername(externalID string) string {
	return "user-" + shortID(externalID)
}

// PlaceholderEmail is used when the token carries no email claim.
func PlaceholderEmail(externalID string) string {
	return shortID(externalID) + "@placeholder.local"
}
