package staff

import (
	"context"

	"github.com/goliatone/go-errors"
)

// DefaultAccounts is the office roster provisioned by the seed command.
// Michael is the only admin.
var DefaultAccounts = []RegisterUserMessage{
	{Name: "Michael Scott", Email: "michaelscott@dundermifflin.com", Password: "password", Admin: true},
	{Name: "Jim Halpert", Email: "jimhalpert@dundermifflin.com", Password: "password"},
	{Name: "Pam Beesly", Email: "pambeesly@dundermifflin.com", Password: "password"},
}

// SeedAccounts registers the default roster. Registration derives ids
// from the email, so reruns hit the uniqueness check and are skipped.
func SeedAccounts(ctx context.Context, repo RepositoryManager) error {
	handler := NewRegisterUserHandler(repo)

	for _, account := range DefaultAccounts {
		if _, err := handler.Execute(ctx, account); err != nil {
			if errors.Is(err, ErrEmailTaken) {
				continue
			}
			return err
		}
	}

	return nil
}
