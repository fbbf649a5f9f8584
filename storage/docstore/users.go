package docstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lusale/gpms/core"
	"github.com/lusale/gpms/core/identity"
)

// Persisted layout: users/{email} -> {role}; ids are trimmed and lowercased.
const usersCollection = "users"

const roleField = "role"

// RoleDirectory stores the user->role mapping.
type RoleDirectory struct {
	store Store
}

var _ identity.Directory = (*RoleDirectory)(nil)

func NewRoleDirectory(store Store) *RoleDirectory {
	return &RoleDirectory{store: store}
}

func (dir *RoleDirectory) GetRole(ctx context.Context, email string) (string, error) {
	doc, err := dir.store.Get(ctx, usersCollection, core.CleanString(email, true))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return "", identity.ErrNoMapping
		}
		return "", errors.Wrap(err, "looking up role")
	}
	role, _ := doc.Fields[roleField].(string)
	return role, nil
}

func (dir *RoleDirectory) GrantRole(ctx context.Context, email, role string) error {
	return dir.store.Put(ctx, usersCollection, core.CleanString(email, true), Fields{roleField: role})
}

func (dir *RoleDirectory) RevokeRole(ctx context.Context, email string) error {
	if err := dir.store.Delete(ctx, usersCollection, core.CleanString(email, true)); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return identity.ErrNoMapping
		}
		return err
	}
	return nil
}
