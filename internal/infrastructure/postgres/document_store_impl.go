package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplist-backend/internal/domain/repository"
)

// DocumentStore persists schemaless documents as JSONB rows and signals the
// change hub after every committed write. Per-document conflicts resolve by
// update order (last write wins); readers always observe whole documents.
type DocumentStore struct {
	pool *pgxpool.Pool
	hub  ChangeHub
}

// ChangeHub receives a signal after each committed write and hands out
// per-collection watch channels.
type ChangeHub interface {
	Publish(ctx context.Context, collection string)
	Subscribe(collection string) (<-chan struct{}, func())
}

func NewDocumentStore(pool *pgxpool.Pool, hub ChangeHub) *DocumentStore {
	return &DocumentStore{pool: pool, hub: hub}
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	doc := repository.Document{ID: id}
	var raw []byte
	row := s.pool.QueryRow(ctx, `
		SELECT data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err := row.Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string, order repository.Order) ([]repository.Document, error) {
	dir := "ASC"
	if order == repository.CreatedDesc {
		dir = "DESC"
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at `+dir+`, id `+dir, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var doc repository.Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := marshalData(data)
	if err != nil {
		return "", err
	}
	var id string
	row := s.pool.QueryRow(ctx, `
		INSERT INTO documents (collection, data)
		VALUES ($1, $2)
		RETURNING id
	`, collection, raw)
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	s.hub.Publish(ctx, collection)
	return id, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := marshalData(data)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, collection, id, raw)
	if err != nil {
		return err
	}
	s.hub.Publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	raw, err := marshalData(patch)
	if err != nil {
		return err
	}
	res, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`, collection, id, raw)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	s.hub.Publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id); err != nil {
		return err
	}
	s.hub.Publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Batch() repository.WriteBatch {
	return &writeBatch{store: s}
}

func (s *DocumentStore) Watch(collection string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(collection)
}

type docRef struct {
	collection string
	id         string
}

// writeBatch commits all collected deletes in one transaction, so a compound
// delete (a list plus its items) is never partially observable.
type writeBatch struct {
	store   *DocumentStore
	deletes []docRef
}

func (b *writeBatch) Delete(collection, id string) {
	b.deletes = append(b.deletes, docRef{collection: collection, id: id})
}

func (b *writeBatch) Commit(ctx context.Context) error {
	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, ref := range b.deletes {
		if _, err := tx.Exec(ctx, `
			DELETE FROM documents WHERE collection = $1 AND id = $2
		`, ref.collection, ref.id); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	seen := make(map[string]struct{}, 2)
	for _, ref := range b.deletes {
		if _, ok := seen[ref.collection]; ok {
			continue
		}
		seen[ref.collection] = struct{}{}
		b.store.hub.Publish(ctx, ref.collection)
	}
	return nil
}

// marshalData resolves ServerTimestamp sentinels against the store clock and
// encodes the document body for JSONB storage.
func marshalData(data map[string]any) ([]byte, error) {
	now := time.Now().UTC()
	resolved := make(map[string]any, len(data))
	for k, v := range data {
		if v == repository.ServerTimestamp {
			resolved[k] = now
			continue
		}
		resolved[k] = v
	}
	return json.Marshal(resolved)
}

var _ repository.DocumentStore = (*DocumentStore)(nil)
