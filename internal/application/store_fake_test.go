package application

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"shoplist-backend/internal/domain/repository"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory DocumentStore for service tests. It mirrors the
// real store's contract: store-assigned IDs, sentinel timestamp resolution,
// explicit nulls for nil patch values, and one change signal per mutated
// collection.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]*fakeDoc
	nextID  int
	nextSub int
	subs    map[string]map[int]chan struct{}
	clock   time.Time

	failList bool
	failGet  bool
}

type fakeDoc struct {
	data      map[string]any
	createdAt time.Time
	updatedAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:  make(map[string]map[string]*fakeDoc),
		subs:  make(map[string]map[int]chan struct{}),
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the store clock so successive writes get distinct timestamps.
func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) resolve(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == repository.ServerTimestamp {
			out[k] = s.clock
			continue
		}
		out[k] = v
	}
	return out
}

func (s *fakeStore) Get(_ context.Context, collection, id string) (*repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, nil
	}
	return &repository.Document{ID: id, Data: copyData(doc.data), CreatedAt: doc.createdAt, UpdatedAt: doc.updatedAt}, nil
}

func (s *fakeStore) List(_ context.Context, collection string, order repository.Order) ([]repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errStoreDown
	}
	out := make([]repository.Document, 0, len(s.docs[collection]))
	for id, doc := range s.docs[collection] {
		out = append(out, repository.Document{ID: id, Data: copyData(doc.data), CreatedAt: doc.createdAt, UpdatedAt: doc.updatedAt})
	}
	sortDocs(out, order)
	return out, nil
}

func (s *fakeStore) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	now := s.tick()
	s.nextID++
	id := "doc-" + strconv.Itoa(s.nextID)
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*fakeDoc)
	}
	s.docs[collection][id] = &fakeDoc{data: s.resolve(data), createdAt: now, updatedAt: now}
	s.mu.Unlock()
	s.signal(collection)
	return id, nil
}

func (s *fakeStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	now := s.tick()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*fakeDoc)
	}
	if existing, ok := s.docs[collection][id]; ok {
		existing.data = s.resolve(data)
		existing.updatedAt = now
	} else {
		s.docs[collection][id] = &fakeDoc{data: s.resolve(data), createdAt: now, updatedAt: now}
	}
	s.mu.Unlock()
	s.signal(collection)
	return nil
}

func (s *fakeStore) Update(_ context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	doc, ok := s.docs[collection][id]
	if !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	now := s.tick()
	for k, v := range s.resolve(patch) {
		doc.data[k] = v
	}
	doc.updatedAt = now
	s.mu.Unlock()
	s.signal(collection)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.docs[collection], id)
	s.mu.Unlock()
	s.signal(collection)
	return nil
}

func (s *fakeStore) Batch() repository.WriteBatch {
	return &fakeBatch{store: s}
}

func (s *fakeStore) Watch(collection string) (<-chan struct{}, func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	ch := make(chan struct{}, 1)
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]chan struct{})
	}
	s.subs[collection][id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[collection], id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *fakeStore) signal(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// count reports how many documents a collection holds.
func (s *fakeStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

// raw returns the stored data of one document for assertion purposes.
func (s *fakeStore) raw(collection, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil
	}
	return copyData(doc.data)
}

type fakeBatch struct {
	store   *fakeStore
	deletes []struct{ collection, id string }
}

func (b *fakeBatch) Delete(collection, id string) {
	b.deletes = append(b.deletes, struct{ collection, id string }{collection, id})
}

func (b *fakeBatch) Commit(_ context.Context) error {
	touched := make(map[string]struct{})
	b.store.mu.Lock()
	for _, d := range b.deletes {
		delete(b.store.docs[d.collection], d.id)
		touched[d.collection] = struct{}{}
	}
	b.store.mu.Unlock()
	for collection := range touched {
		b.store.signal(collection)
	}
	return nil
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func sortDocs(docs []repository.Document, order repository.Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		if order == repository.CreatedAsc {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[j].CreatedAt.Before(docs[i].CreatedAt)
	})
}
