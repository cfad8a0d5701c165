package application

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
)

// SyncService turns store change signals into full-replacement view-model
// snapshots. Every signal triggers a re-query and a complete re-map of the
// collection; callbacks never receive diffs. A failed query degrades the
// snapshot to an empty set instead of tearing the subscription down.
type SyncService struct {
	Store  repository.DocumentStore
	Users  *UserService
	Lists  *ListService
	Logger *logrus.Logger
}

func NewSyncService(store repository.DocumentStore, users *UserService, lists *ListService, logger *logrus.Logger) *SyncService {
	return &SyncService{Store: store, Users: users, Lists: lists, Logger: logger}
}

// SubscribeLists emits the full list collection, newest first, on every
// change. The callback fires once immediately with the current state.
func (s *SyncService) SubscribeLists(ctx context.Context, onChange func([]entity.ShoppingList)) func() {
	return s.watch(ctx, repository.Lists, func() {
		lists, err := s.Lists.Lists(ctx)
		if err != nil {
			s.logSnapshotErr(repository.Lists, err)
			onChange([]entity.ShoppingList{})
			return
		}
		onChange(lists)
	})
}

// SubscribeItems emits one list's items in display order on every change.
// An empty listID emits an empty set immediately and establishes no
// subscription.
func (s *SyncService) SubscribeItems(ctx context.Context, listID string, onChange func([]entity.ShoppingListItem)) func() {
	if strings.TrimSpace(listID) == "" {
		onChange([]entity.ShoppingListItem{})
		return func() {}
	}
	collection := repository.ItemsOf(listID)
	return s.watch(ctx, collection, func() {
		items, err := s.Lists.Items(ctx, listID)
		if err != nil {
			s.logSnapshotErr(collection, err)
			onChange([]entity.ShoppingListItem{})
			return
		}
		onChange(items)
	})
}

// SubscribeUsers emits the full profile collection, newest first, on every
// change.
func (s *SyncService) SubscribeUsers(ctx context.Context, onChange func([]entity.UserProfile)) func() {
	return s.watch(ctx, repository.Users, func() {
		users, err := s.Users.Users(ctx)
		if err != nil {
			s.logSnapshotErr(repository.Users, err)
			onChange([]entity.UserProfile{})
			return
		}
		onChange(users)
	})
}

// SessionState is one emission of the session synchronizer. A cleared UserID
// means the identity has been signed out.
type SessionState struct {
	UserID  string
	Profile *entity.UserProfile
	Ready   bool
}

// SubscribeSession binds an authenticated identity to its live profile
// document. A missing or deactivated profile forcibly revokes the session
// before the cleared state is emitted; a failed profile read keeps the
// identity but degrades the profile to nil.
func (s *SyncService) SubscribeSession(ctx context.Context, uid string, onChange func(SessionState)) func() {
	return s.watch(ctx, repository.Users, func() {
		doc, err := s.Store.Get(ctx, repository.Users, uid)
		if err != nil {
			s.logSnapshotErr(repository.Users, err)
			onChange(SessionState{UserID: uid, Ready: true})
			return
		}
		if doc == nil {
			s.forceSignOut(ctx, uid)
			onChange(SessionState{Ready: true})
			return
		}
		profile := mapProfile(*doc)
		if !profile.IsActive {
			s.forceSignOut(ctx, uid)
			onChange(SessionState{Ready: true})
			return
		}
		onChange(SessionState{UserID: uid, Profile: profile, Ready: true})
	})
}

// watch emits once synchronously, then re-emits on every change signal until
// cancelled. The returned cancel func is idempotent.
func (s *SyncService) watch(ctx context.Context, collection string, emit func()) func() {
	ch, cancel := s.Store.Watch(collection)
	emit()
	go func() {
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				emit()
			}
		}
	}()
	return cancel
}

func (s *SyncService) forceSignOut(ctx context.Context, uid string) {
	if err := s.Users.SignOut(ctx, uid); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("uid", uid).Warn("forced sign-out failed")
	}
}

func (s *SyncService) logSnapshotErr(collection string, err error) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("collection", collection).Warn("snapshot query failed")
	}
}

// SubscriptionManager tracks at most one live subscription per logical scope
// (session identity, list collection, selected list's items). Replacing a
// scope cancels the old subscription before the new one is established, so
// a consumer can never observe data from a stale scope.
type SubscriptionManager struct {
	mu     sync.Mutex
	active map[string]func()
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{active: make(map[string]func())}
}

// Replace cancels any subscription held under scope, then stores the cancel
// func returned by start. start runs after the old subscription is gone.
func (m *SubscriptionManager) Replace(scope string, start func() func()) {
	m.mu.Lock()
	cancel := m.active[scope]
	delete(m.active, scope)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	unsubscribe := start()

	m.mu.Lock()
	m.active[scope] = unsubscribe
	m.mu.Unlock()
}

// Cancel tears down the scope's subscription if one exists. Idempotent.
func (m *SubscriptionManager) Cancel(scope string) {
	m.mu.Lock()
	cancel := m.active[scope]
	delete(m.active, scope)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// CancelAll tears down every held subscription.
func (m *SubscriptionManager) CancelAll() {
	m.mu.Lock()
	cancels := make([]func(), 0, len(m.active))
	for scope, cancel := range m.active {
		cancels = append(cancels, cancel)
		delete(m.active, scope)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
