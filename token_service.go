package staff

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService signs and verifies bearer tokens.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// HMACTokenService implements TokenService with a single process-wide
// HS256 secret, loaded once at startup and injected here; nothing else
// in the codebase reads it.
type HMACTokenService struct {
	signingKey      []byte
	tokenExpiration time.Duration
	logger          Logger
}

// NewTokenService creates a new TokenService instance. A zero expiration
// issues unbounded tokens; anything positive adds iat/exp claims.
func NewTokenService(signingKey []byte, tokenExpiration time.Duration, logger Logger) *HMACTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &HMACTokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		logger:          logger,
	}
}

// Generate signs a token carrying the user's id and email.
func (ts *HMACTokenService) Generate(user *User) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryInternal)
	}

	claims := &TokenClaims{
		UID:   user.ID.String(),
		Email: user.Email,
	}

	if ts.tokenExpiration > 0 {
		now := time.Now()
		claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.tokenExpiration))
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary token claims using the configured signing key.
func (ts *HMACTokenService) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and verifies a token string. Every failure mode comes
// back as an error value, never a panic: malformed structure, signature
// mismatch, and algorithm mismatch all collapse into ErrTokenMalformed
// so the gate can treat them uniformly as "no token".
func (ts *HMACTokenService) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
