package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds the three stateless operations route handlers need.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Identify(ctx context.Context, accessToken string) (*StakeholderView, error)
}

// LoginResult is what a successful login returns: both tokens plus the
// sanitized record, mirroring the login response payload.
type LoginResult struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Stakeholder  *StakeholderView `json:"user"`
}

// StakeholderStore is the credential-store contract the authenticator
// consumes from the persistence layer. Both lookups are pure reads and
// return a CategoryNotFound rich error for absent records.
type StakeholderStore interface {
	FindByEmail(ctx context.Context, email string) (*Stakeholder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Stakeholder, error)
}

// TokenIssuer creates and verifies signed, time-bounded tokens.
type TokenIssuer interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(subjectID string) (string, error)
	Verify(token string, expected TokenKind) (*TokenClaims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetAccessTokenTTLMinutes() int
	GetRefreshTokenTTLDays() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// ActorRef identifies who triggered an administrative mutation. Handlers
// use it to enforce that password and role changes come from the account
// itself or from an admin.
type ActorRef struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// IsAdmin reports whether the actor carries the admin role.
func (a ActorRef) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
