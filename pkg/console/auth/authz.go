package auth

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when authentication is required but not provided.
	// Handlers map it to 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when a user is authenticated but lacks permission.
	// Handlers map it to 403.
	ErrForbidden = errors.New("forbidden")
)

// AuthzProvider defines the authorization interface.
type AuthzProvider interface {
	// Check verifies if the session can perform the action on the resource.
	Check(ctx context.Context, s Session, verb PermissionAction, resource Resource) error
	// IsAdmin checks if the session holds a global ("*") permission.
	IsAdmin(ctx context.Context, s Session) bool
}

var _ AuthzProvider = &ConsoleAuthzProvider{}

type Authorizer struct {
	Authz AuthzProvider
}

func (a *Authorizer) Check(ctx context.Context, verb PermissionAction, resource Resource) error {
	if a == nil || a.Authz == nil {
		return nil
	}
	s, _ := AuthSessionFrom(ctx)
	return a.Authz.Check(ctx, s, verb, resource)
}

// PublicActions are allowed without a token.
var PublicActions = map[PermissionAction]bool{
	PermissionActionRead: true,
}

// ConsoleAuthzProvider lets anyone read and requires a token for changes.
type ConsoleAuthzProvider struct {
	jwtManager *JWTManager
}

func NewConsoleAuthzProvider(jwtManager *JWTManager) *ConsoleAuthzProvider {
	return &ConsoleAuthzProvider{jwtManager: jwtManager}
}

func (o *ConsoleAuthzProvider) Check(ctx context.Context, s Session, verb PermissionAction, resource Resource) error {
	if o.IsAdmin(ctx, s) {
		return nil
	}
	if PublicActions[verb] {
		return nil
	}
	if s == nil {
		return ErrUnauthenticated
	}
	if o.jwtManager == nil {
		return nil
	}
	return o.jwtManager.Check(ctx, s, verb, resource)
}

func (o *ConsoleAuthzProvider) IsAdmin(_ context.Context, s Session) bool {
	if s == nil {
		return false
	}
	for _, permission := range s.Principal().User.Permissions {
		if permission.ResourcePattern == "*" {
			return true
		}
	}
	return false
}

// AnonymousPermissions are granted to tokens issued without credentials.
func AnonymousPermissions() []Permission {
	var perms []Permission
	for _, action := range AllActions {
		for _, t := range []ResourceType{ResourceTypeImport, ResourceTypeAgent, ResourceTypeMcp, ResourceTypeModel} {
			perms = append(perms, Permission{Action: action, ResourcePattern: ResourceName(t, "*")})
		}
	}
	return perms
}
