package staff

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Admin         bool       `bun:"admin,notnull,default:false" json:"admin,omitempty"`
	AvatarKey     string     `bun:"avatar_key,nullzero" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"-"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"-"`
}

// IsSelf reports whether the given id refers to this user.
func (u *User) IsSelf(id uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.ID == id
}

// CanAccess reports whether this user may read or mutate the record
// identified by id: admins reach everything, everyone else only themselves.
func (u *User) CanAccess(id uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.Admin || u.IsSelf(id)
}
