package identity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lusale/gpms/core"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleAdvocate = "advocate"
	RoleUnknown  = "" // authenticated but not provisioned for data access
)

var (
	// ErrNoMapping is returned by Directory implementations when no role
	// document exists for the given identifier.
	ErrNoMapping = errors.New("no role assigned")
)

// Principal is an authenticated caller, identified by an email-shaped string.
type Principal struct {
	Email string `json:"email"`
}

// Key returns the identifier used for case-insensitive ownership comparisons.
func (p Principal) Key() string {
	return core.CleanString(p.Email, true /* lower */)
}

func (p Principal) IsZero() bool { return p.Email == "" }

// Directory looks up the role mapping of a principal.
type Directory interface {
	GetRole(ctx context.Context, email string) (string, error)
}

// LookupError signals that the role lookup itself failed (store unreachable).
// Callers must treat it distinctly from "no role assigned": it blocks the
// roster load entirely, with no partial or degraded view.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return "cannot determine permissions: " + e.Err.Error()
}

func IsLookupFailed(err error) bool {
	_, ok := errors.Cause(err).(*LookupError)
	return ok
}

// Resolver maps a Principal to a Role.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the principal's role. A missing mapping yields RoleUnknown
// and no error; a failed lookup yields a *LookupError.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (string, error) {
	role, err := r.dir.GetRole(ctx, p.Email)
	if err != nil {
		if errors.Cause(err) == ErrNoMapping {
			return RoleUnknown, nil
		}
		return RoleUnknown, &LookupError{Err: err}
	}
	switch role {
	case RoleAdmin, RoleAdvocate:
		return role, nil
	}
	// any other stored value grants nothing
	return RoleUnknown, nil
}
