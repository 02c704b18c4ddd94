package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates access tokens from refresh tokens. The two are
// never interchangeable: Verify rejects a kind mismatch outright, even when
// the signature is valid.
type TokenKind string

const (
	// TokenKindAccess is a short-lived token carrying a claims snapshot.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is a long-lived token used solely to mint new access
	// tokens. It carries no claims snapshot; claims are re-derived fresh on
	// every refresh.
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims is the read surface route handlers consume after the
// middleware has validated a token.
type AuthClaims interface {
	Subject() string
	Kind() TokenKind
	Role() string
	Name() string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete JWT payload.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenType TokenKind `json:"kind,omitempty"`
	// Snapshot claims, present on access tokens only. Stale by at most the
	// access TTL.
	StakeholderRole string `json:"role,omitempty"`
	StakeholderName string `json:"name,omitempty"`
}

var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the stakeholder id the token was issued for.
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Kind returns the token kind, defaulting to access for tokens minted
// before the kind claim existed.
func (c *TokenClaims) Kind() TokenKind {
	if c.TokenType == "" {
		return TokenKindAccess
	}
	return c.TokenType
}

// Role returns the role snapshot embedded at issuance.
func (c *TokenClaims) Role() string {
	return c.StakeholderRole
}

// Name returns the display-name snapshot embedded at issuance.
func (c *TokenClaims) Name() string {
	return c.StakeholderName
}

// Expires returns the expiration time.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time.
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// SubjectUUID parses the subject as a stakeholder id.
func (c *TokenClaims) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
