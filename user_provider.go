package staff

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserProvider verifies credentials against the user store.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user by case-insensitive email and compare
// the submitted password against the stored hash. A missing account and a
// wrong password return the same error value: callers get no signal they
// could use to enumerate users.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

// FindIdentityByIdentifier resolves a user record from a token's user_id
// claim (or an email, for callers that only hold one). The record is
// re-fetched on every call, we never trust payload fields beyond the id.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return u.store.Get(ctx, id)
	}
	return u.store.GetByEmail(ctx, identifier)
}

var _ IdentityProvider = (*UserProvider)(nil)
