package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agentregistry-dev/agentconsole/internal/console/config"
)

// ResourceType is the kind of console resource a permission covers
type ResourceType string

const (
	ResourceTypeImport ResourceType = "import"
	ResourceTypeAgent  ResourceType = "agent"
	ResourceTypeMcp    ResourceType = "mcp"
	ResourceTypeModel  ResourceType = "model"
)

// PermissionAction represents the type of action that can be performed
type PermissionAction string

const (
	PermissionActionRead    PermissionAction = "read"
	PermissionActionImport  PermissionAction = "import"
	PermissionActionInstall PermissionAction = "install"
	PermissionActionEdit    PermissionAction = "edit"
)

// AllActions lists every action a console token can grant
var AllActions = []PermissionAction{
	PermissionActionRead,
	PermissionActionImport,
	PermissionActionInstall,
	PermissionActionEdit,
}

type Permission struct {
	Action          PermissionAction `json:"action"`
	ResourcePattern string           `json:"resource"` // e.g. "agent:*" or "import:3f2a..."
}

// ResourceName formats the name permissions are matched against.
func ResourceName(t ResourceType, name string) string {
	return string(t) + ":" + name
}

// Method is how the holder of a token authenticated
type Method string

const (
	MethodNone   Method = "none"
	MethodIssued Method = "issued"
)

// JWTClaims represents the claims of a console token
type JWTClaims struct {
	jwt.RegisteredClaims
	AuthMethod        Method       `json:"auth_method"`
	AuthMethodSubject string       `json:"auth_method_sub"`
	Permissions       []Permission `json:"permissions"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int    `json:"expires_at"`
}

// JWTManager handles JWT token operations
type JWTManager struct {
	privateKey    ed25519.PrivateKey
	publicKey     ed25519.PublicKey
	tokenDuration time.Duration
}

// NewJWTManager derives an Ed25519 key pair from the hex-encoded seed in cfg.
func NewJWTManager(cfg *config.Config) (*JWTManager, error) {
	seed, err := hex.DecodeString(cfg.JWTPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("JWTPrivateKey must be a valid hex-encoded string: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("JWTPrivateKey seed must be exactly %d bytes for Ed25519, got %d bytes", ed25519.SeedSize, len(seed))
	}

	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)

	return &JWTManager{
		privateKey:    privateKey,
		publicKey:     publicKey,
		tokenDuration: 30 * time.Minute,
	}, nil
}

// GenerateTokenResponse signs claims, filling in the registered claims that are unset
func (j *JWTManager) GenerateTokenResponse(_ context.Context, claims JWTClaims) (*TokenResponse, error) {
	now := time.Now()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.tokenDuration))
	}
	if claims.NotBefore == nil {
		claims.NotBefore = jwt.NewNumericDate(now)
	}
	if claims.Issuer == "" {
		claims.Issuer = "agent-console"
	}

	token := jwt.NewWithClaims(&jwt.SigningMethodEd25519{}, claims)
	tokenString, err := token.SignedString(j.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		Token:     tokenString,
		ExpiresAt: int(claims.ExpiresAt.Unix()),
	}, nil
}

func (j *JWTManager) Check(_ context.Context, s Session, verb PermissionAction, resource Resource) error {
	if !j.HasPermission(ResourceName(resource.Type, resource.Name), verb, s.Principal().User.Permissions) {
		return ErrForbidden
	}
	return nil
}

type jwtSession struct {
	claims *JWTClaims
}

func (s *jwtSession) Principal() Principal {
	return Principal{
		User: User{
			Permissions: s.claims.Permissions,
		},
	}
}

func (j *JWTManager) Authenticate(ctx context.Context, reqHeaders func(name string) string, _ url.Values) (Session, error) {
	const bearerPrefix = "Bearer "
	authHeader := reqHeaders("Authorization")
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return nil, nil
	}
	token := authHeader[len(bearerPrefix):]

	claims, err := j.ValidateToken(ctx, token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired console token", err)
	}
	return &jwtSession{claims: claims}, nil
}

// ValidateToken validates a console token and returns its claims. Expiry is required.
func (j *JWTManager) ValidateToken(_ context.Context, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(_ *jwt.Token) (any, error) { return j.publicKey, nil },
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (j *JWTManager) HasPermission(resource string, action PermissionAction, permissions []Permission) bool {
	for _, perm := range permissions {
		if perm.Action == action && isResourceMatch(resource, perm.ResourcePattern) {
			return true
		}
	}
	return false
}

func isResourceMatch(resource, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, found := strings.CutSuffix(pattern, "*"); found {
		return strings.HasPrefix(resource, prefix)
	}
	return resource == pattern
}
