package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// Default token lifetimes. Access tokens stay short so the embedded claims
// snapshot can only be stale for minutes; refresh tokens live for days.
const (
	DefaultAccessTokenTTLMinutes = 15
	DefaultRefreshTokenTTLDays   = 7
)

// insecureSigningKeys are placeholder values that must never reach a
// production deployment. NewConfig rejects them outright.
var insecureSigningKeys = map[string]bool{
	"":          true,
	"secret":    true,
	"changeme":  true,
	"change-me": true,
	"dev":       true,
}

// BaseConfig is a plain-struct Config implementation. The signing key must
// be externally supplied; every process verifying tokens has to share the
// same key, and rotating it invalidates all outstanding tokens.
type BaseConfig struct {
	SigningKey       string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod    string   `json:"signing_method" koanf:"signing_method"`
	ContextKey       string   `json:"context_key" koanf:"context_key"`
	AccessTTLMinutes int      `json:"access_ttl_minutes" koanf:"access_ttl_minutes"`
	RefreshTTLDays   int      `json:"refresh_ttl_days" koanf:"refresh_ttl_days"`
	TokenLookup      string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme       string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer           string   `json:"issuer" koanf:"issuer"`
	Audience         []string `json:"audience" koanf:"audience"`
}

var _ Config = (*BaseConfig)(nil)

// NewConfig validates the signing key, fills in defaults, and returns a
// ready-to-use Config.
func NewConfig(signingKey string) (*BaseConfig, error) {
	cfg := &BaseConfig{SigningKey: signingKey}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetDefaults fills any unset field with its default value.
func (c *BaseConfig) SetDefaults() {
	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}
	if c.ContextKey == "" {
		c.ContextKey = "stakeholder"
	}
	if c.AccessTTLMinutes <= 0 {
		c.AccessTTLMinutes = DefaultAccessTokenTTLMinutes
	}
	if c.RefreshTTLDays <= 0 {
		c.RefreshTTLDays = DefaultRefreshTokenTTLDays
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:Authorization"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	if c.Issuer == "" {
		c.Issuer = "fms-auth"
	}
}

// Validate enforces the non-default signing key requirement.
func (c *BaseConfig) Validate() error {
	if insecureSigningKeys[c.SigningKey] {
		return errors.New("signing key is empty or a known placeholder", errors.CategoryValidation).
			WithTextCode("AUTH_INSECURE_SIGNING_KEY").
			WithCode(errors.CodeBadRequest)
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.SigningMethod, validation.Required, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.AccessTTLMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshTTLDays, validation.Required, validation.Min(1)),
	)
}

func (c *BaseConfig) GetSigningKey() string           { return c.SigningKey }
func (c *BaseConfig) GetSigningMethod() string        { return c.SigningMethod }
func (c *BaseConfig) GetContextKey() string           { return c.ContextKey }
func (c *BaseConfig) GetAccessTokenTTLMinutes() int   { return c.AccessTTLMinutes }
func (c *BaseConfig) GetRefreshTokenTTLDays() int     { return c.RefreshTTLDays }
func (c *BaseConfig) GetTokenLookup() string          { return c.TokenLookup }
func (c *BaseConfig) GetAuthScheme() string           { return c.AuthScheme }
func (c *BaseConfig) GetIssuer() string               { return c.Issuer }
func (c *BaseConfig) GetAudience() []string           { return c.Audience }
