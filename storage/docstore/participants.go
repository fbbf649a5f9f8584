package docstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lusale/gpms/core/participant"
)

// Persisted layout:
//   participants/{id}
//   participants/{id}/caseNotes/{noteId}
//   participants/{id}/expenses/{expenseId}
const participantsCollection = "participants"

func caseNotesCollection(participantID string) string {
	return participantsCollection + "/" + participantID + "/caseNotes"
}

func expensesCollection(participantID string) string {
	return participantsCollection + "/" + participantID + "/expenses"
}

// createdAtLayout is fixed-width (no trimmed fractional zeros) so that the
// store's lexicographic ordering on the field matches chronological ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type participantRepository struct {
	store Store
}

var _ participant.Repository = (*participantRepository)(nil)

func NewParticipantRepository(store Store) participant.Repository {
	return &participantRepository{store: store}
}

func (repo *participantRepository) GetParticipant(ctx context.Context, id string) (participant.Participant, error) {
	doc, err := repo.store.Get(ctx, participantsCollection, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return participant.Participant{}, participant.ErrNotFound
		}
		return participant.Participant{}, err
	}
	return decodeParticipant(doc)
}

func (repo *participantRepository) QueryAllParticipants(ctx context.Context) ([]participant.Participant, error) {
	docs, err := repo.store.List(ctx, participantsCollection)
	if err != nil {
		return nil, err
	}
	prts := make([]participant.Participant, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeParticipant(doc)
		if err != nil {
			return nil, err
		}
		prts = append(prts, p)
	}
	return prts, nil
}

func (repo *participantRepository) PutParticipant(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	fields, err := MarshalFields(p)
	if err != nil {
		return participant.Participant{}, err
	}
	if err = repo.store.Put(ctx, participantsCollection, p.ID, fields); err != nil {
		return participant.Participant{}, err
	}
	return p, nil
}

func (repo *participantRepository) UpdateParticipant(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	fields, err := MarshalFields(p)
	if err != nil {
		return participant.Participant{}, err
	}
	if err = repo.store.Update(ctx, participantsCollection, p.ID, fields); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return participant.Participant{}, participant.ErrNotFound
		}
		return participant.Participant{}, err
	}
	return p, nil
}

func (repo *participantRepository) DeleteParticipant(ctx context.Context, id string) error {
	// strong composition: sub-records go with their owner
	if err := repo.store.Drop(ctx, caseNotesCollection(id)); err != nil {
		return err
	}
	if err := repo.store.Drop(ctx, expensesCollection(id)); err != nil {
		return err
	}
	if err := repo.store.Delete(ctx, participantsCollection, id); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return participant.ErrNotFound
		}
		return err
	}
	return nil
}

func (repo *participantRepository) CreateCaseNote(ctx context.Context, participantID string, note participant.CaseNote) (participant.CaseNote, error) {
	fields, err := MarshalFields(note)
	if err != nil {
		return participant.CaseNote{}, err
	}
	fields["createdAt"] = note.CreatedAt.UTC().Format(createdAtLayout)
	if err = repo.store.Put(ctx, caseNotesCollection(participantID), note.ID, fields); err != nil {
		return participant.CaseNote{}, err
	}
	return note, nil
}

func (repo *participantRepository) QueryCaseNotes(ctx context.Context, participantID string) ([]participant.CaseNote, error) {
	docs, err := repo.store.ListOrdered(ctx, caseNotesCollection(participantID), "createdAt", true /* desc */)
	if err != nil {
		return nil, err
	}
	notes := make([]participant.CaseNote, 0, len(docs))
	for _, doc := range docs {
		var note participant.CaseNote
		if err = doc.Decode(&note); err != nil {
			return nil, err
		}
		note.ID = doc.ID
		notes = append(notes, note)
	}
	return notes, nil
}

func (repo *participantRepository) CreateExpense(ctx context.Context, participantID string, exp participant.Expense) (participant.Expense, error) {
	fields, err := MarshalFields(exp)
	if err != nil {
		return participant.Expense{}, err
	}
	fields["createdAt"] = exp.CreatedAt.UTC().Format(createdAtLayout)
	if err = repo.store.Put(ctx, expensesCollection(participantID), exp.ID, fields); err != nil {
		return participant.Expense{}, err
	}
	return exp, nil
}

func (repo *participantRepository) QueryExpenses(ctx context.Context, participantID string) ([]participant.Expense, error) {
	docs, err := repo.store.ListOrdered(ctx, expensesCollection(participantID), "createdAt", true /* desc */)
	if err != nil {
		return nil, err
	}
	exps := make([]participant.Expense, 0, len(docs))
	for _, doc := range docs {
		var exp participant.Expense
		if err = doc.Decode(&exp); err != nil {
			return nil, err
		}
		exp.ID = doc.ID
		exps = append(exps, exp)
	}
	return exps, nil
}

func decodeParticipant(doc Document) (participant.Participant, error) {
	var p participant.Participant
	if err := doc.Decode(&p); err != nil {
		return participant.Participant{}, err
	}
	p.ID = doc.ID
	return p, nil
}
