// Package pgstore implements the document store on a single postgres JSONB
// table; collections are path values, not schema.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lusale/gpms/storage/docstore"
)

type Store struct {
	db *sqlx.DB
}

var _ docstore.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, coll, id string) (docstore.Document, error) {
	var raw []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT fields FROM documents WHERE collection = $1 AND id = $2`,
		coll, id,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, errors.Wrap(err, "getting document")
	}
	return decodeDocument(id, raw)
}

func (s *Store) List(ctx context.Context, coll string) ([]docstore.Document, error) {
	// seq keeps insertion order
	return s.list(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 ORDER BY seq`,
		coll)
}

func (s *Store) ListOrdered(ctx context.Context, coll, orderBy string, desc bool) ([]docstore.Document, error) {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	return s.list(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 ORDER BY fields->>$2 `+direction,
		coll, orderBy)
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]docstore.Document, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	defer func() { _ = rows.Close() }()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err = rows.Scan(&id, &raw); err != nil {
			return nil, errors.Wrap(err, "scanning document")
		}
		doc, err := decodeDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, errors.Wrap(rows.Err(), "listing documents")
}

func (s *Store) Put(ctx context.Context, coll, id string, fields docstore.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields`,
		coll, id, raw,
	)
	return errors.Wrap(err, "putting document")
}

func (s *Store) Update(ctx context.Context, coll, id string, partial docstore.Fields) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET fields = fields || $3::jsonb WHERE collection = $1 AND id = $2`,
		coll, id, raw,
	)
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	return checkAffected(res)
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		coll, id,
	)
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return checkAffected(res)
}

func (s *Store) Drop(ctx context.Context, coll string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1`,
		coll,
	)
	return errors.Wrap(err, "dropping collection")
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking affected rows")
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func decodeDocument(id string, raw []byte) (docstore.Document, error) {
	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return docstore.Document{}, errors.Wrap(err, "decoding document")
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}
