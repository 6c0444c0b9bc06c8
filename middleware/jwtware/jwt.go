// Package jwtware guards fiber routes with bearer token authentication.
// It depends only on small local interfaces so the root package can plug
// in its token service and user store without an import cycle.
package jwtware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// TokenValidator mirrors the root token service Validate method.
type TokenValidator interface {
	Validate(tokenString string) (Claims, error)
}

// Claims is what the middleware needs from a decoded token payload.
type Claims interface {
	UserID() string
	UserEmail() string
}

// UserResolver loads the account referenced by the token. Returning an
// error rejects the request, the middleware never trusts claims alone.
type UserResolver func(ctx context.Context, userID string) (any, error)

type SigningKey struct {
	JWTAlg string
	Key    any
}

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	JWKSetURLs  []string
	KeyFunc     jwt.Keyfunc

	// TokenValidator is required.
	TokenValidator TokenValidator
	UserResolver   UserResolver

	// ContextKey is the locals slot for the resolved user record.
	ContextKey string
	// ClaimsKey is the locals slot for the decoded claims.
	ClaimsKey string
	// AuthScheme defaults to "Bearer" and is matched case sensitively.
	AuthScheme string

	// ContextEnricher propagates the resolved user into the request's
	// standard context after successful validation.
	ContextEnricher func(ctx context.Context, user any, claims Claims) context.Context
}

// New returns the route gate. The header must carry exactly two
// whitespace separated parts and the scheme must match byte for byte:
// "bearer" and "Bears" are both rejected.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := TokenFromHeader(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		var user any
		if cfg.UserResolver != nil {
			user, err = cfg.UserResolver(c.UserContext(), claims.UserID())
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, user)
		c.Locals(cfg.ClaimsKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), user, claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// TokenFromHeader pulls the raw token out of an Authorization value.
func TokenFromHeader(header, authScheme string) (string, error) {
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", ErrJWTMissingOrMalformed
	}

	if parts[0] != authScheme {
		return "", ErrJWTMissingOrMalformed
	}

	return parts[1], nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  fiber.StatusUnauthorized,
				"message": "Unauthorized",
			})
		}
	}

	if cfg.TokenValidator == nil {
		if cfg.KeyFunc == nil && cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 {
			panic("AUTH: JWT middleware configuration: At least one of the following is required: TokenValidator, KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
		}
		cfg.TokenValidator = NewParserValidator(cfg.keyfunc())
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "current_user"
	}

	if cfg.ClaimsKey == "" {
		cfg.ClaimsKey = "claims"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) keyfunc() jwt.Keyfunc {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc
	}

	if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
		var givenKeys map[string]keyfunc.GivenKey
		if cfg.SigningKeys != nil {
			givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
			for kid, key := range cfg.SigningKeys {
				givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
					Algorithm: key.JWTAlg,
				})
			}
		}

		if len(cfg.JWKSetURLs) > 0 {
			kf, err := multiKeyfunc(givenKeys, cfg.JWKSetURLs)
			if err != nil {
				panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
			}
			return kf
		}

		return keyfunc.NewGiven(givenKeys).Keyfunc
	}

	return signingKeyFunc(cfg.SigningKey)
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetURLs []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetURLs))
	for _, url := range jwtSetURLs {
		m[url] = opts
	}
	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

// parserValidator decodes tokens with a bare keyfunc. It is the default
// when no domain validator is plugged in, and the only path that serves
// the multi key and JWK set configurations.
type parserValidator struct {
	keyFunc jwt.Keyfunc
}

func NewParserValidator(keyFunc jwt.Keyfunc) TokenValidator {
	return &parserValidator{keyFunc: keyFunc}
}

func (p *parserValidator) Validate(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, p.keyFunc)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrJWTMissingOrMalformed
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrJWTMissingOrMalformed
	}

	return mapClaims(mc), nil
}

// mapClaims adapts jwt.MapClaims to the middleware Claims interface.
type mapClaims jwt.MapClaims

func (m mapClaims) UserID() string {
	if v, ok := m["user_id"].(string); ok && v != "" {
		return v
	}
	if v, ok := m["sub"].(string); ok {
		return v
	}
	return ""
}

func (m mapClaims) UserEmail() string {
	if v, ok := m["email"].(string); ok {
		return v
	}
	return ""
}
