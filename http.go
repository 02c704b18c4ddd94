package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-fms-auth/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator wires the stateless token checks into route handling:
// a ProtectedRoute middleware for downstream resources, plus the JSON error
// translation every auth endpoint shares.
type RouteAuthenticator struct {
	auth         Authenticator
	issuer       TokenIssuer
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewHTTPAuthenticator builds a RouteAuthenticator. The issuer must be the
// same one the Auther signs with, otherwise protected routes reject every
// token.
func NewHTTPAuthenticator(auther Authenticator, issuer TokenIssuer, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		issuer: issuer,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// AccessTokenValidator adapts the issuer into the middleware contract,
// pinning the expected kind to access so refresh tokens can never pass a
// protected route.
func (a *RouteAuthenticator) AccessTokenValidator() jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		claims, err := a.issuer.Verify(tokenString, TokenKindAccess)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// ProtectedRoute guards a route behind a valid access token. Claims end up
// in router locals under the configured context key and in the request
// context for non-HTTP layers.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: a.AccessTokenValidator(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if tc, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, tc)
			}
			return c
		},
	})
}

// AdminRoute is ProtectedRoute plus an exact role requirement.
func (a *RouteAuthenticator) AdminRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: a.AccessTokenValidator(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		RequiredRole:   RoleAdmin,
	})
}

// BearerToken pulls the raw credential from the request using the
// configured lookup. The refresh endpoint uses this directly since the
// middleware would demand an access token.
func (a *RouteAuthenticator) BearerToken(ctx router.Context) (string, error) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		TokenValidator: a.AccessTokenValidator(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		TokenLookup:    a.cfg.GetTokenLookup(),
	})

	return jwtware.ExtractRawTokenFromContext(ctx, cfg.Extractors())
}

// defaultErrHandler translates rich errors into the stable JSON shape. The
// message is generic per category; the specific reason only goes to the
// log.
func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		if IsTokenExpiredError(err) || IsMalformedError(err) {
			richErr = ErrInvalidToken
		} else {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}
	}

	// Token sub-cases collapse to the single invalid-token response.
	// Missing credentials never reach here: that error is CategoryBadInput.
	if richErr.Category == errors.CategoryAuth && richErr.TextCode != TextCodeInvalidCreds &&
		richErr.TextCode != TextCodeInactive {
		a.Logger.Warn(
			"Token rejected",
			"text_code", richErr.TextCode,
			"path", c.OriginalURL(),
		)
		richErr = ErrInvalidToken
	}

	if richErr.Category == errors.CategoryInternal {
		a.Logger.Error(
			"Auth internal error",
			"error", richErr.Message,
			"details", print.MaybePrettyJSON(richErr.Metadata),
			"path", c.OriginalURL(),
		)
		return c.JSON(router.StatusInternalServerError, errorBody("An internal server error occurred"))
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	return c.JSON(code, errorBody(richErr.Message))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
