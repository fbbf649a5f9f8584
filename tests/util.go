package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusale/gpms/core/participant"
	"github.com/lusale/gpms/storage/docstore"
	inmemstore "github.com/lusale/gpms/storage/docstore/inmem"
)

// NewRepos returns a participant repository and a role directory backed by
// the same fresh in-memory store.
func NewRepos(t *testing.T) (participant.Repository, *docstore.RoleDirectory) {
	t.Helper()
	store := inmemstore.NewStore()
	return docstore.NewParticipantRepository(store), docstore.NewRoleDirectory(store)
}

func GrantRole(t *testing.T, dir *docstore.RoleDirectory, email, role string) {
	t.Helper()
	if err := dir.GrantRole(context.Background(), email, role); err != nil {
		t.Fatalf("GrantRole() failed: %v", err)
	}
}

// CreateParticipant persists a participant built from `np`, deriving the
// document id the same way the service does.
func CreateParticipant(t *testing.T, repo participant.Repository, np participant.NewParticipant, createdAt ...time.Time) participant.Participant {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if err := np.Validate(); err != nil {
		t.Fatalf("CreateParticipant() failed: %v", err)
	}
	p, err := repo.PutParticipant(context.Background(), np.Participant(tstamp))
	if err != nil {
		t.Fatalf("CreateParticipant() failed: %v", err)
	}
	return p
}

// Advocated is a convenience for participants owned by an advocate.
func Advocated(first, last, advocateEmail string) participant.NewParticipant {
	return participant.NewParticipant{
		FirstName:    first,
		LastName:     last,
		AdvocateName: null.StringFrom(advocateEmail),
	}
}
