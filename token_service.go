package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and verifies access and refresh tokens. It is pure
// and cheap on the verify path; issuance only signs, it never touches
// storage.
type TokenService struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a TokenService from the shared Config.
func NewTokenService(cfg Config, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey:    []byte(cfg.GetSigningKey()),
		signingMethod: resolveSigningMethod(cfg.GetSigningMethod()),
		accessTTL:     time.Duration(cfg.GetAccessTokenTTLMinutes()) * time.Minute,
		refreshTTL:    time.Duration(cfg.GetRefreshTokenTTLDays()) * 24 * time.Hour,
		issuer:        cfg.GetIssuer(),
		audience:      jwt.ClaimStrings(cfg.GetAudience()),
		logger:        logger,
	}
}

func resolveSigningMethod(name string) jwt.SigningMethod {
	switch name {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// IssueAccessToken encodes the identity's claims snapshot into a signed
// access token. The snapshot is not re-read from storage until the next
// refresh, so the access TTL bounds its staleness.
func (ts *TokenService) IssueAccessToken(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	claims := ts.newClaims(identity.ID(), TokenKindAccess, ts.accessTTL)
	claims.StakeholderRole = identity.Role()
	claims.StakeholderName = identity.Name()

	return ts.signClaims(claims)
}

// IssueRefreshToken encodes subject only. No claims snapshot: a leaked
// refresh token can mint access tokens but discloses nothing, and claims
// are re-derived fresh on every refresh.
func (ts *TokenService) IssueRefreshToken(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id must not be empty", errors.CategoryInternal)
	}

	claims := ts.newClaims(subjectID, TokenKindRefresh, ts.refreshTTL)

	return ts.signClaims(claims)
}

func (ts *TokenService) newClaims(subject string, kind TokenKind, ttl time.Duration) *TokenClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenService) signClaims(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(ts.signingMethod, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify checks signature, expiry, and token kind. The returned errors
// carry the specific reason (expired, malformed, wrong kind) for
// server-side logging; HTTP surfaces must collapse them to ErrInvalidToken
// before replying.
func (ts *TokenService) Verify(tokenString string, expected TokenKind) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	if claims.Kind() != expected {
		return nil, ErrWrongTokenKind.Clone().WithMetadata(map[string]any{
			"expected": string(expected),
			"got":      string(claims.Kind()),
		})
	}

	return claims, nil
}
