package staff

import (
	"context"

	"github.com/dundermifflin/staff-api/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// tokenValidatorAdapter bridges the root TokenService to the middleware
// validator interface.
type tokenValidatorAdapter struct {
	tokens TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.Claims, error) {
	claims, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewAuthGate builds the bearer token middleware for protected routes.
// The token only names an account, the record is re-fetched on every
// request so deleted users lose access immediately.
func NewAuthGate(cfg Config, tokens TokenService, store Users, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{tokens: tokens},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		UserResolver: func(ctx context.Context, userID string) (any, error) {
			id, err := uuid.Parse(userID)
			if err != nil {
				return nil, ErrIdentityNotFound
			}

			user, err := store.Get(ctx, id)
			if err != nil {
				if repository.IsRecordNotFound(err) {
					return nil, ErrIdentityNotFound
				}
				return nil, err
			}

			return user, nil
		},
		ContextEnricher: func(ctx context.Context, user any, claims jwtware.Claims) context.Context {
			if u, ok := user.(*User); ok {
				ctx = WithContext(ctx, u)
			}
			if tc, ok := claims.(*TokenClaims); ok {
				ctx = WithClaimsContext(ctx, tc)
			}
			return ctx
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Debug("auth gate rejected request: %s", err)
			return respond(c, fiber.StatusUnauthorized, "Unauthorized")
		},
	})
}
