package staff_test

import (
	"context"
	"encoding/json"
	"testing"

	staff "github.com/dundermifflin/staff-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectUser(t *testing.T) {
	ctx := context.Background()
	avatars := &fakeAvatars{}

	t.Run("Regular user omits the admin key", func(t *testing.T) {
		user := &staff.User{
			ID:           uuid.New(),
			Name:         "Jim Halpert",
			Email:        "jim@dundermifflin.com",
			PasswordHash: "$2a$14$secret",
		}

		profile, err := staff.ProjectUser(ctx, user, avatars)
		require.NoError(t, err)

		body, err := json.Marshal(profile)
		require.NoError(t, err)

		payload := map[string]any{}
		require.NoError(t, json.Unmarshal(body, &payload))

		assert.Equal(t, user.ID.String(), payload["id"])
		assert.Equal(t, "jim@dundermifflin.com", payload["email"])
		assert.Equal(t, "Jim Halpert", payload["name"])
		assert.NotContains(t, payload, "admin")
	})

	t.Run("Admin user carries admin true", func(t *testing.T) {
		user := &staff.User{
			ID:    uuid.New(),
			Name:  "Michael Scott",
			Email: "michael@dundermifflin.com",
			Admin: true,
		}

		profile, err := staff.ProjectUser(ctx, user, avatars)
		require.NoError(t, err)

		payload := marshalToMap(t, profile)
		assert.Equal(t, true, payload["admin"])
	})

	t.Run("Avatar key is always present", func(t *testing.T) {
		bare := &staff.User{ID: uuid.New(), Email: "pam@dundermifflin.com"}

		profile, err := staff.ProjectUser(ctx, bare, avatars)
		require.NoError(t, err)

		payload := marshalToMap(t, profile)
		require.Contains(t, payload, "avatar")
		assert.Nil(t, payload["avatar"])

		withAvatar := &staff.User{
			ID:        uuid.New(),
			Email:     "pam@dundermifflin.com",
			AvatarKey: "avatars/abc/pam.png",
		}

		profile, err = staff.ProjectUser(ctx, withAvatar, avatars)
		require.NoError(t, err)

		payload = marshalToMap(t, profile)
		assert.Equal(t, "https://cdn.example.com/avatars/abc/pam.png", payload["avatar"])
	})

	t.Run("Password hash never leaks", func(t *testing.T) {
		user := &staff.User{
			ID:           uuid.New(),
			Email:        "jim@dundermifflin.com",
			PasswordHash: "super-secret-hash",
		}

		profile, err := staff.ProjectUser(ctx, user, avatars)
		require.NoError(t, err)

		body, err := json.Marshal(profile)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "super-secret-hash")
		assert.NotContains(t, string(body), "password")
	})
}

func TestProjectUsers(t *testing.T) {
	ctx := context.Background()

	records := []*staff.User{
		{ID: uuid.New(), Name: "Michael Scott", Email: "michael@dundermifflin.com", Admin: true},
		{ID: uuid.New(), Name: "Jim Halpert", Email: "jim@dundermifflin.com"},
	}

	profiles, err := staff.ProjectUsers(ctx, records, &fakeAvatars{})
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.NotNil(t, profiles[0].Admin)
	assert.Nil(t, profiles[1].Admin)
}

func marshalToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}
