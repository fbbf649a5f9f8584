package participant_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lusale/gpms/core"
	"github.com/lusale/gpms/core/identity"
	"github.com/lusale/gpms/core/participant"
	emailsvc "github.com/lusale/gpms/services/email"
	"github.com/lusale/gpms/storage/docstore"
	"github.com/lusale/gpms/tests"
)

var (
	admin    = identity.Principal{Email: "boss@test.cd"}
	advocate = identity.Principal{Email: "jane@test.cd"}
	stranger = identity.Principal{Email: "nobody@test.cd"}
)

type failingDirectory struct{}

func (failingDirectory) GetRole(context.Context, string) (string, error) {
	return "", errors.New("store unreachable")
}

func newService(t *testing.T) (*participant.Service, participant.Repository) {
	t.Helper()
	repo, dir := testutil.NewRepos(t)
	testutil.GrantRole(t, dir, admin.Email, identity.RoleAdmin)
	testutil.GrantRole(t, dir, advocate.Email, identity.RoleAdvocate)

	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewConfig())
	return participant.NewService(repo, identity.NewResolver(dir), mailSvc), repo
}

func TestService_LoadRoster(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	ann := testutil.CreateParticipant(t, repo, testutil.Advocated("Ann", "Lee", advocate.Email))
	bo := testutil.CreateParticipant(t, repo, testutil.Advocated("Bo", "Kim", "other@test.cd"))

	t.Run("admin sees all with advocate options", func(t *testing.T) {
		role, roster, err := svc.LoadRoster(ctx, admin, participant.QueryFilter{})
		if err != nil {
			t.Fatalf("LoadRoster() failed: %v", err)
		}
		if role != identity.RoleAdmin {
			t.Errorf("role = %q, want admin", role)
		}
		if len(roster.Participants) != 2 {
			t.Errorf("got %d participants, want 2", len(roster.Participants))
		}
		if len(roster.Advocates) != 2 {
			t.Errorf("Advocates = %v, want both", roster.Advocates)
		}
	})

	t.Run("advocate sees own records only", func(t *testing.T) {
		role, roster, err := svc.LoadRoster(ctx, advocate, participant.QueryFilter{})
		if err != nil {
			t.Fatalf("LoadRoster() failed: %v", err)
		}
		if role != identity.RoleAdvocate {
			t.Errorf("role = %q, want advocate", role)
		}
		if len(roster.Participants) != 1 || roster.Participants[0].ID != ann.ID {
			t.Errorf("participants = %v, want [%s]", roster.Participants, ann.ID)
		}
		if len(roster.Advocates) != 0 {
			t.Errorf("Advocates offered to advocate: %v", roster.Advocates)
		}
		_ = bo
	})

	t.Run("unprovisioned caller gets an empty roster, not an error", func(t *testing.T) {
		role, roster, err := svc.LoadRoster(ctx, stranger, participant.QueryFilter{})
		if err != nil {
			t.Fatalf("LoadRoster() failed: %v", err)
		}
		if role != identity.RoleUnknown {
			t.Errorf("role = %q, want unknown", role)
		}
		if len(roster.Participants) != 0 {
			t.Errorf("participants = %v, want none", roster.Participants)
		}
	})

	t.Run("failed role lookup blocks the load", func(t *testing.T) {
		broken := participant.NewService(repo, identity.NewResolver(failingDirectory{}), nil)
		_, roster, err := broken.LoadRoster(ctx, admin, participant.QueryFilter{})
		if !identity.IsLookupFailed(err) {
			t.Fatalf("LoadRoster() error = %v, want LookupError", err)
		}
		if len(roster.Participants) != 0 {
			t.Errorf("roster returned alongside a lookup failure: %v", roster.Participants)
		}
	})
}

func TestService_Create(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	t.Run("advocate can create", func(t *testing.T) {
		p, err := svc.Create(ctx, advocate, participant.NewParticipant{FirstName: " Jo ", LastName: "Ann Smith"})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if p.ID != "jo_ann_smith" {
			t.Errorf("ID = %q, want jo_ann_smith", p.ID)
		}
		if p.FirstName != "Jo" {
			t.Errorf("FirstName = %q, want trimmed", p.FirstName)
		}
	})

	t.Run("duplicate key is a validation error and writes nothing", func(t *testing.T) {
		orig, err := svc.Create(ctx, admin, participant.NewParticipant{
			FirstName: "Ann",
			LastName:  "Lee",
			Cohort:    null.StringFrom("C1"),
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}

		_, err = svc.Create(ctx, admin, participant.NewParticipant{FirstName: " ANN ", LastName: "lee"})
		verr, ok := errors.Cause(err).(*core.ValidationError)
		if !ok {
			t.Fatalf("Create() error = %v, want *core.ValidationError", err)
		}
		if len(verr.Fields) != 2 {
			t.Errorf("Fields = %v, want firstName and lastName", verr.Fields)
		}

		kept, err := repo.GetParticipant(ctx, orig.ID)
		if err != nil {
			t.Fatalf("GetParticipant() failed: %v", err)
		}
		if !kept.Cohort.Valid || kept.Cohort.String != "C1" {
			t.Errorf("original record was overwritten: %+v", kept)
		}
	})

	t.Run("unprovisioned caller is forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, stranger, participant.NewParticipant{FirstName: "Cal", LastName: "Roe"})
		if errors.Cause(err) != participant.ErrForbidden {
			t.Errorf("Create() error = %v, want ErrForbidden", err)
		}
	})
}

func TestService_Get(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	ann := testutil.CreateParticipant(t, repo, testutil.Advocated("Ann", "Lee", advocate.Email))
	bo := testutil.CreateParticipant(t, repo, testutil.Advocated("Bo", "Kim", "other@test.cd"))

	if _, err := svc.Get(ctx, advocate, ann.ID); err != nil {
		t.Errorf("Get() own record failed: %v", err)
	}
	// inaccessible records read as absent; their existence is not revealed
	if _, err := svc.Get(ctx, advocate, bo.ID); errors.Cause(err) != participant.ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, admin, bo.ID); err != nil {
		t.Errorf("Get() as admin failed: %v", err)
	}
	if _, err := svc.Get(ctx, admin, "missing_person"); errors.Cause(err) != participant.ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestService_Update(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	ann := testutil.CreateParticipant(t, repo, testutil.Advocated("Ann", "Lee", advocate.Email))

	t.Run("merges set fields only", func(t *testing.T) {
		got, err := svc.Update(ctx, advocate, ann.ID, participant.UpdateParticipant{
			Cohort: null.StringFrom("C3"),
		})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Cohort.String != "C3" || got.FirstName != "Ann" {
			t.Errorf("Update() = %+v", got)
		}
	})

	t.Run("renames keep the document id", func(t *testing.T) {
		got, err := svc.Update(ctx, admin, ann.ID, participant.UpdateParticipant{
			FirstName: null.StringFrom("Anna"),
		})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.ID != ann.ID {
			t.Errorf("ID = %q, want %q", got.ID, ann.ID)
		}
	})

	t.Run("assigning a new advocate sends a notification", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		_, err := svc.Update(ctx, admin, ann.ID, participant.UpdateParticipant{
			AdvocateName: null.StringFrom("new@test.cd"),
		})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent %d messages, want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if len(msg.To) != 1 || msg.To[0].Address != "new@test.cd" {
			t.Errorf("To = %v, want new@test.cd", msg.To)
		}
	})

	t.Run("untouched advocate sends nothing", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		if _, err := svc.Update(ctx, admin, ann.ID, participant.UpdateParticipant{
			Cohort: null.StringFrom("C4"),
		}); err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if len(emailsvc.SentMessages) != 0 {
			t.Errorf("sent %d messages, want none", len(emailsvc.SentMessages))
		}
	})
}

func TestService_Delete(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	ann := testutil.CreateParticipant(t, repo, testutil.Advocated("Ann", "Lee", advocate.Email))
	if _, err := svc.AddCaseNote(ctx, advocate, ann.ID, participant.NewCaseNote{Text: "intake done"}); err != nil {
		t.Fatalf("AddCaseNote() failed: %v", err)
	}

	// deletion is admin only, even for the owning advocate
	if err := svc.Delete(ctx, advocate, ann.ID); errors.Cause(err) != participant.ErrForbidden {
		t.Fatalf("Delete() error = %v, want ErrForbidden", err)
	}

	if err := svc.Delete(ctx, admin, ann.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := repo.GetParticipant(ctx, ann.ID); errors.Cause(err) != participant.ErrNotFound {
		t.Errorf("GetParticipant() error = %v, want ErrNotFound", err)
	}
	// sub-records go with their owner
	notes, err := repo.QueryCaseNotes(ctx, ann.ID)
	if err != nil {
		t.Fatalf("QueryCaseNotes() failed: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("case notes survived deletion: %v", notes)
	}
}

func TestService_subRecords(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	ann := testutil.CreateParticipant(t, repo, testutil.Advocated("Ann", "Lee", advocate.Email))
	bo := testutil.CreateParticipant(t, repo, testutil.Advocated("Bo", "Kim", "other@test.cd"))

	t.Run("case notes list newest first", func(t *testing.T) {
		for _, text := range []string{"first", "second", "third"} {
			if _, err := svc.AddCaseNote(ctx, advocate, ann.ID, participant.NewCaseNote{Text: text}); err != nil {
				t.Fatalf("AddCaseNote() failed: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}
		notes, err := svc.CaseNotes(ctx, advocate, ann.ID)
		if err != nil {
			t.Fatalf("CaseNotes() failed: %v", err)
		}
		if len(notes) != 3 || notes[0].Text != "third" || notes[2].Text != "first" {
			t.Errorf("CaseNotes() = %v, want newest first", notes)
		}
	})

	t.Run("expenses list newest first", func(t *testing.T) {
		for i, desc := range []string{"bus fare", "books"} {
			if _, err := svc.AddExpense(ctx, advocate, ann.ID, participant.NewExpense{
				Description: desc,
				Amount:      float64(i+1) * 10,
			}); err != nil {
				t.Fatalf("AddExpense() failed: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}
		exps, err := svc.Expenses(ctx, advocate, ann.ID)
		if err != nil {
			t.Fatalf("Expenses() failed: %v", err)
		}
		if len(exps) != 2 || exps[0].Description != "books" {
			t.Errorf("Expenses() = %v, want newest first", exps)
		}
	})

	t.Run("blank note text fails validation", func(t *testing.T) {
		if _, err := svc.AddCaseNote(ctx, advocate, ann.ID, participant.NewCaseNote{Text: "  "}); err == nil {
			t.Error("AddCaseNote() accepted a blank note")
		}
	})

	t.Run("negative amount fails validation", func(t *testing.T) {
		if _, err := svc.AddExpense(ctx, advocate, ann.ID, participant.NewExpense{
			Description: "refund",
			Amount:      -5,
		}); err == nil {
			t.Error("AddExpense() accepted a negative amount")
		}
	})

	t.Run("inaccessible participant reads as absent", func(t *testing.T) {
		if _, err := svc.AddCaseNote(ctx, advocate, bo.ID, participant.NewCaseNote{Text: "nope"}); errors.Cause(err) != participant.ErrNotFound {
			t.Errorf("AddCaseNote() error = %v, want ErrNotFound", err)
		}
		if _, err := svc.Expenses(ctx, advocate, bo.ID); errors.Cause(err) != participant.ErrNotFound {
			t.Errorf("Expenses() error = %v, want ErrNotFound", err)
		}
	})
}
