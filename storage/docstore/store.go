// Package docstore exposes the document-store collaborator: schemaless
// documents addressed by a collection path and an id, with sub-collections
// nested under their owner's path (e.g. "participants/jo_doe/caseNotes").
package docstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("document not found")

// Fields is one document's payload.
type Fields map[string]interface{}

type Document struct {
	ID     string
	Fields Fields
}

type Store interface {
	// Get returns one document; ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns all documents of a collection in insertion order.
	List(ctx context.Context, collection string) ([]Document, error)
	// ListOrdered returns all documents of a collection ordered by the given
	// field's encoded value.
	ListOrdered(ctx context.Context, collection, orderBy string, desc bool) ([]Document, error)
	// Put writes the full document, silently overwriting an existing one
	// (last write wins); uniqueness pre-checks are the caller's concern.
	Put(ctx context.Context, collection, id string, fields Fields) error
	// Update merges the partial fields into an existing document;
	// ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, partial Fields) error
	// Delete removes one document; ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error
	// Drop removes a whole (sub-)collection. Dropping an absent collection
	// is not an error.
	Drop(ctx context.Context, collection string) error
}

// MarshalFields converts a domain value to document fields via its JSON form.
// The "id" field, if any, is stripped: the id lives in the document key.
func MarshalFields(v interface{}) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document fields")
	}
	var fields Fields
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "decoding document fields")
	}
	delete(fields, "id")
	return fields, nil
}

// Decode converts the document's fields back into a domain value. The
// caller assigns the document id afterwards.
func (d Document) Decode(dst interface{}) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return errors.Wrap(err, "encoding document fields")
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "decoding document")
}
