// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role values carried in access tokens. The backend never authenticates;
// it only authorizes with the role the identity provider already resolved.
const (
	RoleAdmin    = "admin"
	RoleSalesRep = "sales_rep"
)

// Identity represents the authenticated user's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Name returns the user's display name, used in audit entries.
	Name() string
	// Role returns the user's role.
	Role() string
	// IsAdmin returns true if the user holds the admin role.
	IsAdmin() bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	userID        uuid.UUID
	name          string
	role          string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID { return i.userID }

func (i *identity) Name() string { return i.name }

func (i *identity) Role() string { return i.role }

func (i *identity) IsAdmin() bool { return i.role == RoleAdmin }

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// NewIdentity builds an authenticated Identity. Used by auth middleware and
// by tests that exercise authorization paths directly.
func NewIdentity(userID uuid.UUID, name, role string) Identity {
	return &identity{userID: userID, name: name, role: role, authenticated: true}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	name := c.GetString(ContextUserNameKey)
	role := c.GetString(ContextRoleKey)

	return &identity{
		userID:        uid,
		name:          name,
		role:          role,
		authenticated: true,
	}
}
