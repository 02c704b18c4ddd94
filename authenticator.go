package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// Auther orchestrates login, refresh, and identity resolution. It is the
// single point where store and hasher failures are translated into the
// caller-facing error taxonomy; the store and hasher never produce
// HTTP-shaped errors themselves.
//
// Every operation is a short-lived, stateless request-response computation.
// The only shared state is the read-only signing key inside the token
// service, so concurrent logins hash in parallel without coordination.
type Auther struct {
	store     StakeholderStore
	tokens    TokenIssuer
	logger    Logger
	Validator func(*Stakeholder) error
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther wired to the given store and config.
func NewAuthenticator(store StakeholderStore, cfg Config) *Auther {
	return &Auther{
		store:     store,
		tokens:    NewTokenService(cfg, defLogger{}),
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	a.logger = logger
	return a
}

// WithTokenIssuer swaps the token backend, mainly for tests.
func (a *Auther) WithTokenIssuer(issuer TokenIssuer) *Auther {
	a.tokens = issuer
	return a
}

// TokenIssuer exposes the token backend so route middleware can share it.
func (a *Auther) TokenIssuer() TokenIssuer {
	return a.tokens
}

// Login verifies credentials and issues an access + refresh token pair.
//
// Unknown email and wrong password both come back as ErrInvalidCredentials;
// the dummy-digest comparison keeps the two paths at comparable cost so
// response timing does not reveal whether the email exists.
func (a *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	stakeholder, err := a.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.IsNotFound(err) {
		a.logger.Error("Login stakeholder lookup failed", "email", email, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve stakeholder during login")
	}

	digest := dummyDigest()
	if stakeholder.HasPassword() {
		digest = stakeholder.PasswordHash
	}

	// The comparison always runs, even for a missing record or a record
	// with no password set; the dummy digest matches no supplied password.
	matched := VerifyPassword(password, digest)

	if stakeholder == nil || !matched {
		a.logger.Warn("Login failed: invalid credentials", "email", email)
		return nil, ErrInvalidCredentials
	}

	if !stakeholder.Active {
		a.logger.Warn("Login blocked: stakeholder inactive", "email", email)
		return nil, ErrStakeholderInactive
	}

	if err := a.validate(stakeholder); err != nil {
		a.logger.Error("Login blocked: stakeholder failed validation", "email", email, "error", err)
		return nil, err
	}

	identity := NewIdentityFromStakeholder(stakeholder)

	accessToken, err := a.tokens.IssueAccessToken(identity)
	if err != nil {
		a.logger.Error("Login failed to issue access token", "email", email, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refreshToken, err := a.tokens.IssueRefreshToken(identity.ID())
	if err != nil {
		a.logger.Error("Login failed to issue refresh token", "email", email, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	a.logger.Info("Login successful", "email", email)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Stakeholder:  stakeholder.Sanitized(),
	}, nil
}

// Refresh verifies a refresh token and mints a fresh access token with
// claims re-derived from the current record. The re-lookup is mandatory:
// the account may have been deactivated or re-roled since the refresh
// token was issued. Refresh tokens are not rotated here.
func (a *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := a.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		a.logger.Warn("Refresh rejected", "reason", err)
		return "", ErrInvalidToken
	}

	id, err := claims.SubjectUUID()
	if err != nil {
		a.logger.Warn("Refresh rejected: subject is not a stakeholder id", "subject", claims.Subject())
		return "", ErrInvalidToken
	}

	stakeholder, err := a.store.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			a.logger.Warn("Refresh rejected: stakeholder vanished", "id", id)
			return "", ErrStakeholderInactive
		}
		a.logger.Error("Refresh stakeholder lookup failed", "id", id, "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve stakeholder during refresh")
	}

	if !stakeholder.Active {
		a.logger.Warn("Refresh rejected: stakeholder inactive", "id", id)
		return "", ErrStakeholderInactive
	}

	if err := a.validate(stakeholder); err != nil {
		return "", err
	}

	accessToken, err := a.tokens.IssueAccessToken(NewIdentityFromStakeholder(stakeholder))
	if err != nil {
		a.logger.Error("Refresh failed to issue access token", "id", id, "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	return accessToken, nil
}

// Identify resolves an access token back to the current sanitized record.
// A vanished record yields ErrStakeholderNotFound; that is safe to surface
// as 404 because the caller already proved possession of a valid token.
func (a *Auther) Identify(ctx context.Context, accessToken string) (*StakeholderView, error) {
	claims, err := a.tokens.Verify(accessToken, TokenKindAccess)
	if err != nil {
		a.logger.Warn("Identify rejected", "reason", err)
		return nil, ErrInvalidToken
	}

	id, err := claims.SubjectUUID()
	if err != nil {
		a.logger.Warn("Identify rejected: subject is not a stakeholder id", "subject", claims.Subject())
		return nil, ErrInvalidToken
	}

	stakeholder, err := a.store.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrStakeholderNotFound
		}
		a.logger.Error("Identify stakeholder lookup failed", "id", id, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve stakeholder during identify")
	}

	// A deactivated account should stop resolving identity right away, not
	// linger until its access token expires.
	if !stakeholder.Active {
		a.logger.Warn("Identify rejected: stakeholder inactive", "id", id)
		return nil, ErrStakeholderInactive
	}

	return stakeholder.Sanitized(), nil
}

func (a *Auther) validate(s *Stakeholder) error {
	if a.Validator != nil {
		return a.Validator(s)
	}
	return defaultValidator(s)
}

// defaultValidator enforces the claims-embedding invariant: a record with
// no role cannot be issued an access token.
func defaultValidator(s *Stakeholder) error {
	if strings.TrimSpace(s.Role) == "" {
		return errors.New("stakeholder has no role assigned", errors.CategoryInternal).
			WithTextCode("AUTH_MISSING_ROLE").
			WithMetadata(map[string]any{"stakeholder_id": s.ID.String()})
	}
	return nil
}
