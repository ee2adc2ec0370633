package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/fabworks/workshop-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Role        domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsAdmin checks if the user has the admin role
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// IsSupervisor checks if the user has the supervisor role
func (u *UserContext) IsSupervisor() bool {
	return u.Role == domain.RoleSupervisor
}

// IsFabricator checks if the user has the fabricator role
func (u *UserContext) IsFabricator() bool {
	return u.Role == domain.RoleFabricator
}

// HasAnyRole checks if the user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// CanManageProject checks if the user may administer the given project:
// admins always, supervisors only when they own it.
func (u *UserContext) CanManageProject(project *domain.Project) bool {
	if u.IsAdmin() {
		return true
	}
	if u.IsSupervisor() && project.SupervisorID != nil && *project.SupervisorID == u.UserID {
		return true
	}
	return false
}
