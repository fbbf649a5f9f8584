package participant

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lusale/gpms/core"
	"github.com/lusale/gpms/core/identity"
)

var (
	// errors
	ErrNotFound  = errors.New("participant not found")
	ErrExists    = errors.New("a participant with this name already exists")
	ErrForbidden = errors.New("permission denied")
)

type (
	Repository interface {
		GetParticipant(ctx context.Context, id string) (Participant, error)
		QueryAllParticipants(ctx context.Context) ([]Participant, error)
		PutParticipant(ctx context.Context, p Participant) (Participant, error)
		UpdateParticipant(ctx context.Context, p Participant) (Participant, error)
		// DeleteParticipant removes the participant and its sub-records.
		DeleteParticipant(ctx context.Context, id string) error
		CreateCaseNote(ctx context.Context, participantID string, note CaseNote) (CaseNote, error)
		// QueryCaseNotes returns the participant's case notes, newest first.
		QueryCaseNotes(ctx context.Context, participantID string) ([]CaseNote, error)
		CreateExpense(ctx context.Context, participantID string, exp Expense) (Expense, error)
		// QueryExpenses returns the participant's expenses, newest first.
		QueryExpenses(ctx context.Context, participantID string) ([]Expense, error)
	}

	Service struct {
		repo     Repository
		resolver *identity.Resolver
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, resolver *identity.Resolver, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, resolver: resolver, mailSvc: mailSvc}
}

// LoadRoster resolves the caller's role, fetches the full roster, applies the
// access filter and builds the view model, strictly in that order. A failed
// role lookup blocks the load entirely: the roster is never returned alongside
// an error.
func (svc *Service) LoadRoster(ctx context.Context, principal identity.Principal, qf QueryFilter) (string, Roster, error) {
	role, err := svc.resolver.Resolve(ctx, principal)
	if err != nil {
		return "", Roster{}, err
	}
	if role == identity.RoleUnknown {
		return role, BuildRoster(nil, role, qf), nil
	}

	all, err := svc.repo.QueryAllParticipants(ctx)
	if err != nil {
		return "", Roster{}, errors.Wrap(err, "querying participants")
	}

	visible := AccessFilter(role, principal, all)
	return role, BuildRoster(visible, role, qf), nil
}

// Get returns one participant, provided the caller may access it. Records the
// caller may not see are reported as not found.
func (svc *Service) Get(ctx context.Context, principal identity.Principal, id string) (Participant, error) {
	_, p, err := svc.getAccessible(ctx, principal, id)
	return p, err
}

// Create validates the draft, derives its document key and writes it, failing
// with a duplicate-key validation error when the key is taken. The
// check-then-write is not atomic against the store; a concurrent create with
// the same name is last-write-wins.
func (svc *Service) Create(ctx context.Context, principal identity.Principal, np NewParticipant) (Participant, error) {
	role, err := svc.resolver.Resolve(ctx, principal)
	if err != nil {
		return Participant{}, err
	}
	if role == identity.RoleUnknown {
		return Participant{}, ErrForbidden
	}

	if err := np.Validate(); err != nil {
		return Participant{}, err
	}

	id := np.DocumentID()
	if _, err := svc.repo.GetParticipant(ctx, id); err == nil {
		return Participant{}, core.NewValidationError(ErrExists,
			core.FieldError{Field: "firstName", Error: ErrExists.Error()},
			core.FieldError{Field: "lastName", Error: ErrExists.Error()},
		)
	} else if errors.Cause(err) != ErrNotFound {
		return Participant{}, errors.Wrap(err, "checking document key")
	}

	return svc.repo.PutParticipant(ctx, np.Participant(time.Now().UTC()))
}

// Update merges the provided fields onto the stored record. Changing the
// advocate notifies the new advocate by email; the document ID never changes.
func (svc *Service) Update(ctx context.Context, principal identity.Principal, id string, up UpdateParticipant) (Participant, error) {
	_, orig, err := svc.getAccessible(ctx, principal, id)
	if err != nil {
		return Participant{}, err
	}

	if err := up.Validate(); err != nil {
		return Participant{}, err
	}

	merged := up.apply(orig, time.Now().UTC())
	updated, err := svc.repo.UpdateParticipant(ctx, merged)
	if err != nil {
		return Participant{}, errors.Wrap(err, "updating participant")
	}

	if updated.AdvocateName.Valid && updated.AdvocateKey() != orig.AdvocateKey() {
		svc.notifyAdvocateAssigned(updated)
	}
	return updated, nil
}

// Delete removes a participant and its sub-records. Admin only.
func (svc *Service) Delete(ctx context.Context, principal identity.Principal, id string) error {
	role, err := svc.resolver.Resolve(ctx, principal)
	if err != nil {
		return err
	}
	if role != identity.RoleAdmin {
		return ErrForbidden
	}
	return svc.repo.DeleteParticipant(ctx, id)
}

// AddCaseNote appends a case note to an accessible participant. Sub-records
// are append-only: no update or delete is offered.
func (svc *Service) AddCaseNote(ctx context.Context, principal identity.Principal, participantID string, nn NewCaseNote) (CaseNote, error) {
	if _, _, err := svc.getAccessible(ctx, principal, participantID); err != nil {
		return CaseNote{}, err
	}
	if err := nn.Validate(); err != nil {
		return CaseNote{}, err
	}
	note := CaseNote{
		ID:        uuid.New().String(),
		Text:      nn.Text,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateCaseNote(ctx, participantID, note)
}

// CaseNotes lists an accessible participant's case notes, newest first.
func (svc *Service) CaseNotes(ctx context.Context, principal identity.Principal, participantID string) ([]CaseNote, error) {
	if _, _, err := svc.getAccessible(ctx, principal, participantID); err != nil {
		return nil, err
	}
	return svc.repo.QueryCaseNotes(ctx, participantID)
}

// AddExpense appends an expense to an accessible participant.
func (svc *Service) AddExpense(ctx context.Context, principal identity.Principal, participantID string, ne NewExpense) (Expense, error) {
	if _, _, err := svc.getAccessible(ctx, principal, participantID); err != nil {
		return Expense{}, err
	}
	if err := ne.Validate(); err != nil {
		return Expense{}, err
	}
	exp := Expense{
		ID:          uuid.New().String(),
		Description: ne.Description,
		Amount:      ne.Amount,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateExpense(ctx, participantID, exp)
}

// Expenses lists an accessible participant's expenses, newest first.
func (svc *Service) Expenses(ctx context.Context, principal identity.Principal, participantID string) ([]Expense, error) {
	if _, _, err := svc.getAccessible(ctx, principal, participantID); err != nil {
		return nil, err
	}
	return svc.repo.QueryExpenses(ctx, participantID)
}

// getAccessible resolves the caller's role and fetches the participant,
// re-deriving write/read authorization from the same rule the roster filter
// uses. Inaccessible records are reported as not found.
func (svc *Service) getAccessible(ctx context.Context, principal identity.Principal, id string) (string, Participant, error) {
	role, err := svc.resolver.Resolve(ctx, principal)
	if err != nil {
		return "", Participant{}, err
	}
	if role == identity.RoleUnknown {
		return role, Participant{}, ErrForbidden
	}

	p, err := svc.repo.GetParticipant(ctx, id)
	if err != nil {
		return role, Participant{}, err
	}
	if !CanAccess(role, principal, p) {
		return role, Participant{}, ErrNotFound
	}
	return role, p, nil
}

func (svc *Service) notifyAdvocateAssigned(p Participant) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: p.AdvocateName.String}},
		Subject: "Participant assigned to your caseload",
		BodyStr: fmt.Sprintf("%s has been assigned to your caseload.", p.FullName()),
	})
}
