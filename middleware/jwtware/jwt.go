// Package jwtware guards routes behind a verified bearer token. It mirrors
// the claims surface of the root auth package through local interfaces so
// the two packages do not import each other.
package jwtware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// AuthClaims mirrors the root package's claims surface.
type AuthClaims interface {
	Subject() string
	Role() string
	Name() string
}

// TokenValidator validates a raw token string. The validator decides which
// token kind it accepts; the middleware only transports and stores claims.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrJWTMissingOrMalformed
	}
	return f(tokenString)
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	ContextKey     string
	// TokenLookup is a "<source>:<name>" list, e.g. "header:Authorization"
	// or "header:Authorization,query:token".
	TokenLookup string
	AuthScheme  string
	// TokenValidator is required.
	TokenValidator TokenValidator

	// RequiredRole rejects claims whose role does not match exactly. Roles
	// are free-form labels, so there is no hierarchy to climb.
	RequiredRole string

	// ContextEnricher propagates claims to the standard Go context after a
	// successful validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

// New builds the middleware.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if cfg.RequiredRole != "" && claims.Role() != cfg.RequiredRole {
				return cfg.ErrorHandler(ctx,
					fmt.Errorf("access denied: required role '%s' not found", cfg.RequiredRole))
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// JWTExtractor pulls a raw token out of the request.
type JWTExtractor func(ctx router.Context) (string, error)

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" && err == nil {
		err = ErrJWTMissingOrMalformed
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if err.Error() == ErrJWTMissingOrMalformed.Error() {
				return c.Status(router.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "stakeholder"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// Extractors resolves the configured token lookups.
func (cfg Config) Extractors() []JWTExtractor {
	return cfg.getExtractors()
}

func (cfg Config) getExtractors() []JWTExtractor {
	lookups := strings.Split(cfg.TokenLookup, ",")
	extractors := make([]JWTExtractor, 0, len(lookups))

	for _, lookup := range lookups {
		parts := strings.SplitN(strings.TrimSpace(lookup), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := parts[0], parts[1]
		switch source {
		case "header":
			extractors = append(extractors, jwtFromHeader(name, cfg.AuthScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(name))
		case "param":
			extractors = append(extractors, jwtFromParam(name))
		}
	}

	return extractors
}

func jwtFromHeader(header, authScheme string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		auth := ctx.GetString(header, "")
		if auth == "" {
			return "", ErrJWTMissingOrMalformed
		}

		l := len(authScheme)
		if l == 0 {
			return auth, nil
		}

		if len(auth) > l+1 && strings.EqualFold(auth[:l], authScheme) {
			return strings.TrimSpace(auth[l+1:]), nil
		}

		return "", ErrJWTMissingOrMalformed
	}
}

func jwtFromQuery(param string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func jwtFromCookie(name string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func jwtFromParam(param string) JWTExtractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
