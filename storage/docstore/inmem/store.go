// Package inmemstore is an in-memory document store for tests and local dev.
package inmemstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lusale/gpms/storage/docstore"
)

type collection struct {
	docs  map[string]docstore.Fields
	order []string // insertion order
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ docstore.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) Get(_ context.Context, coll, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *Store) List(_ context.Context, coll string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return []docstore.Document{}, nil
	}
	docs := make([]docstore.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, docstore.Document{ID: id, Fields: cloneFields(c.docs[id])})
	}
	return docs, nil
}

func (s *Store) ListOrdered(ctx context.Context, coll, orderBy string, desc bool) ([]docstore.Document, error) {
	docs, err := s.List(ctx, coll)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		return fieldString(docs[i].Fields, orderBy) < fieldString(docs[j].Fields, orderBy)
	})
	return docs, nil
}

func (s *Store) Put(_ context.Context, coll, id string, fields docstore.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Fields)}
		s.collections[coll] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneFields(fields)
	return nil
}

func (s *Store) Update(_ context.Context, coll, id string, partial docstore.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return docstore.ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range partial {
		fields[k] = v
	}
	return nil
}

func (s *Store) Delete(_ context.Context, coll, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return docstore.ErrNotFound
	}
	if _, ok = c.docs[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(c.docs, id)
	for i, ordID := range c.order {
		if ordID == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Drop(_ context.Context, coll string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, coll)
	return nil
}

func cloneFields(fields docstore.Fields) docstore.Fields {
	clone := make(docstore.Fields, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}

// fieldString renders a field value for ordering comparisons. Encoded
// timestamps are RFC 3339 strings, which order lexicographically.
func fieldString(fields docstore.Fields, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
