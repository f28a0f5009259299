package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// Role is the caller's role carried in access tokens.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleKiosk  Role = "kiosk"
	RoleAdmin  Role = "admin"
)

// TokenConfig holds token validation configuration.
type TokenConfig struct {
	JWTSecret []byte
	Issuer    string
}

// AccessTokenClaims represents the claims in an access token. Tokens are
// issued by the identity service; this service only validates them.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
	// BranchID pins staff and kiosk tokens to one branch. Empty for admins
	// and members.
	BranchID string `json:"branch_id,omitempty"`
}

// UserID parses the subject as a user ID.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HasRole reports whether the claims carry one of roles.
func (c *AccessTokenClaims) HasRole(roles ...Role) bool {
	return slices.Contains(roles, c.Role)
}

// CanActAtBranch reports whether a staff-side caller may operate on branchID.
// Admins may act anywhere; staff and kiosks only at their own branch.
func (c *AccessTokenClaims) CanActAtBranch(branchID uuid.UUID) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleStaff, RoleKiosk:
		pinned, err := uuid.Parse(c.BranchID)
		return err == nil && pinned == branchID
	default:
		return false
	}
}

// TokenVerifier validates bearer access tokens.
type TokenVerifier struct {
	config TokenConfig
	parser *jwt.Parser
}

// NewTokenVerifier creates a new token verifier.
func NewTokenVerifier(config TokenConfig) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &TokenVerifier{
		config: config,
		parser: jwt.NewParser(opts...),
	}
}

// ValidateAccessToken validates an access token and returns the claims.
func (v *TokenVerifier) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return v.config.JWTSecret, nil
	})
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
