package staff

import (
	"context"
)

// Profile is the only user shape allowed to leave the service. The field
// set is fixed at compile time: no dynamic slicing, and no code path that
// could pull the password hash or raw timestamps into a response.
type Profile struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Admin  *bool   `json:"admin,omitempty"`
}

// AvatarResolver turns an opaque storage key into a fetchable URL.
type AvatarResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

// ProjectUser maps a stored record to its external representation. The
// avatar key is always present in the output, null when nothing is
// attached; the admin flag only appears when the subject is an admin.
func ProjectUser(ctx context.Context, user *User, avatars AvatarResolver) (Profile, error) {
	p := Profile{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
	}

	if user.Admin {
		admin := true
		p.Admin = &admin
	}

	if user.AvatarKey != "" && avatars != nil {
		url, err := avatars.ResolveURL(ctx, user.AvatarKey)
		if err != nil {
			return Profile{}, err
		}
		if url != "" {
			p.Avatar = &url
		}
	}

	return p, nil
}

// ProjectUsers applies ProjectUser to every record; list payloads go
// through the exact same mapping as single fetches.
func ProjectUsers(ctx context.Context, records []*User, avatars AvatarResolver) ([]Profile, error) {
	profiles := make([]Profile, 0, len(records))
	for _, user := range records {
		p, err := ProjectUser(ctx, user, avatars)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
