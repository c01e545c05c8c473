package domain

import "errors"

// Actor is the user performing a mutating operation. It is passed explicitly
// to every use case that writes audit fields.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleAccountant can post payments and conciliate or null entries
	RoleAccountant Role = "accountant"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleAccountant: true,
	RoleViewer:     true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanPost checks if the role can create entries and payments
func (r Role) CanPost() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// CanApprove checks if the role can conciliate or null entries
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
	ErrMissingActor     = errors.New("actor is required for this operation")
)

// Authorize checks that actor is present and its role satisfies allowed.
func (a *Actor) Authorize(allowed func(Role) bool) error {
	if a == nil || a.ID == "" {
		return ErrMissingActor
	}

	if !allowed(a.Role) {
		return ErrInsufficientRole
	}

	return nil
}
