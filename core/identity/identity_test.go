package identity

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type directoryStub struct {
	roles map[string]string
	err   error
}

func (d directoryStub) GetRole(_ context.Context, email string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	role, ok := d.roles[email]
	if !ok {
		return "", ErrNoMapping
	}
	return role, nil
}

func TestPrincipal_Key(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "lowercased", email: "X@Y.com", want: "x@y.com"},
		{name: "trimmed", email: "  a@b.cd  ", want: "a@b.cd"},
		{name: "empty", email: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Principal{Email: tt.email}).Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	storeErr := errors.New("store unreachable")

	tests := []struct {
		name       string
		dir        Directory
		email      string
		wantRole   string
		wantErr    bool
		wantLookup bool
	}{
		{
			name:     "admin mapping",
			dir:      directoryStub{roles: map[string]string{"boss@test.cd": RoleAdmin}},
			email:    "boss@test.cd",
			wantRole: RoleAdmin,
		},
		{
			name:     "advocate mapping",
			dir:      directoryStub{roles: map[string]string{"jane@test.cd": RoleAdvocate}},
			email:    "jane@test.cd",
			wantRole: RoleAdvocate,
		},
		{
			name:     "no mapping is not an error",
			dir:      directoryStub{},
			email:    "nobody@test.cd",
			wantRole: RoleUnknown,
		},
		{
			name:     "unrecognized stored value grants nothing",
			dir:      directoryStub{roles: map[string]string{"odd@test.cd": "superuser"}},
			email:    "odd@test.cd",
			wantRole: RoleUnknown,
		},
		{
			name:       "failed lookup",
			dir:        directoryStub{err: storeErr},
			email:      "boss@test.cd",
			wantRole:   RoleUnknown,
			wantErr:    true,
			wantLookup: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.dir)
			role, err := r.Resolve(context.Background(), Principal{Email: tt.email})
			if role != tt.wantRole {
				t.Errorf("Resolve() role = %q, want %q", role, tt.wantRole)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantLookup {
				if !IsLookupFailed(err) {
					t.Errorf("IsLookupFailed() = false, want true; err %v", err)
				}
				var lerr *LookupError
				if !errors.As(err, &lerr) || errors.Cause(lerr.Err) != storeErr {
					t.Errorf("LookupError does not wrap the store error; err %v", err)
				}
			}
		})
	}
}
