package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
)

func newSyncService(store *fakeStore, repo *fakeUserRepo) *SyncService {
	users := newUserService(store, repo)
	lists := newListService(store)
	return NewSyncService(store, users, lists, testLogger())
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		panic("unreachable")
	}
}

func assertNoEmit[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected snapshot emission")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeListsEmitsImmediatelyThenOnChange(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Lists.CreateList(ctx, CreateListInput{Name: "Weekly", Owner: aisha()})
	require.NoError(t, err)

	emissions := make(chan []entity.ShoppingList, 8)
	cancel := svc.SubscribeLists(ctx, func(lists []entity.ShoppingList) { emissions <- lists })
	defer cancel()

	first := recv(t, emissions)
	require.Len(t, first, 1)
	assert.Equal(t, "Weekly", first[0].Name)

	_, err = svc.Lists.CreateList(ctx, CreateListInput{Name: "Party", Owner: ben()})
	require.NoError(t, err)

	next := recv(t, emissions)
	require.Len(t, next, 2, "every emission carries the complete collection")
	assert.Equal(t, "Party", next[0].Name)
}

func TestSubscribeItemsEmptyListID(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	ctx := context.Background()

	emissions := make(chan []entity.ShoppingListItem, 8)
	cancel := svc.SubscribeItems(ctx, "", func(items []entity.ShoppingListItem) { emissions <- items })
	defer cancel()

	assert.Empty(t, recv(t, emissions))

	// no live subscription exists, so later writes are invisible
	_, err := svc.Lists.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk", User: aisha()})
	require.NoError(t, err)
	assertNoEmit(t, emissions)
}

func TestSubscribeItemsFullReplacementOrder(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	ctx := context.Background()

	first, err := svc.Lists.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk 2L", User: aisha()})
	require.NoError(t, err)
	_, err = svc.Lists.CreateItem(ctx, "l1", CreateItemInput{Name: "Bread", User: aisha()})
	require.NoError(t, err)

	emissions := make(chan []entity.ShoppingListItem, 8)
	cancel := svc.SubscribeItems(ctx, "l1", func(items []entity.ShoppingListItem) { emissions <- items })
	defer cancel()

	snapshot := recv(t, emissions)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Milk 2L", snapshot[0].Name)

	require.NoError(t, svc.Lists.TogglePurchased(ctx, "l1", first, true, ben()))

	snapshot = recv(t, emissions)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Bread", snapshot[0].Name, "purchased item drops behind pending ones")
	assert.Equal(t, "Milk 2L", snapshot[1].Name)
	require.NotNil(t, snapshot[1].PurchasedByName)
	assert.Equal(t, "Ben", *snapshot[1].PurchasedByName)
}

func TestSubscriptionManagerReplaceSwitchesScope(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Lists.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk", User: aisha()})
	require.NoError(t, err)
	_, err = svc.Lists.CreateItem(ctx, "l2", CreateItemInput{Name: "Balloons", User: ben()})
	require.NoError(t, err)

	type emission struct {
		listID string
		items  []entity.ShoppingListItem
	}
	emissions := make(chan emission, 8)
	subs := NewSubscriptionManager()

	subscribe := func(listID string) {
		subs.Replace("items", func() func() {
			return svc.SubscribeItems(ctx, listID, func(items []entity.ShoppingListItem) {
				emissions <- emission{listID: listID, items: items}
			})
		})
	}

	subscribe("l1")
	got := recv(t, emissions)
	require.Len(t, got.items, 1)
	assert.Equal(t, "Milk", got.items[0].Name)

	subscribe("l2")
	got = recv(t, emissions)
	assert.Equal(t, "l2", got.listID)
	require.Len(t, got.items, 1)
	assert.Equal(t, "Balloons", got.items[0].Name)

	// a write to the abandoned list must not reach the consumer
	_, err = svc.Lists.CreateItem(ctx, "l1", CreateItemInput{Name: "Eggs", User: aisha()})
	require.NoError(t, err)
	assertNoEmit(t, emissions)

	subs.CancelAll()
}

func TestSubscriptionManagerCancelIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	ctx := context.Background()

	emissions := make(chan []entity.ShoppingList, 8)
	subs := NewSubscriptionManager()
	subs.Replace("lists", func() func() {
		return svc.SubscribeLists(ctx, func(lists []entity.ShoppingList) { emissions <- lists })
	})
	recv(t, emissions)

	subs.Cancel("lists")
	subs.Cancel("lists")
	subs.CancelAll()

	_, err := svc.Lists.CreateList(ctx, CreateListInput{Name: "Weekly", Owner: aisha()})
	require.NoError(t, err)
	assertNoEmit(t, emissions)
}

func TestSubscribeListsDegradesToEmptyOnStoreError(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	store.failList = true

	emissions := make(chan []entity.ShoppingList, 8)
	cancel := svc.SubscribeLists(context.Background(), func(lists []entity.ShoppingList) { emissions <- lists })
	defer cancel()

	assert.Empty(t, recv(t, emissions), "a failed query yields an empty snapshot, not a dead subscription")
}

func TestSubscribeSessionActiveProfile(t *testing.T) {
	store := newFakeStore()
	repo := newFakeUserRepo()
	svc := newSyncService(store, repo)
	ctx := context.Background()

	uid := registerAndActivate(t, svc.Users, store, "a@example.com", "secret1")

	states := make(chan SessionState, 8)
	cancel := svc.SubscribeSession(ctx, uid, func(st SessionState) { states <- st })
	defer cancel()

	st := recv(t, states)
	assert.True(t, st.Ready)
	assert.Equal(t, uid, st.UserID)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Aisha", st.Profile.Name)
}

func TestSubscribeSessionDeactivationSignsOut(t *testing.T) {
	store := newFakeStore()
	repo := newFakeUserRepo()
	svc := newSyncService(store, repo)
	ctx := context.Background()

	uid := registerAndActivate(t, svc.Users, store, "a@example.com", "secret1")

	states := make(chan SessionState, 8)
	cancel := svc.SubscribeSession(ctx, uid, func(st SessionState) { states <- st })
	defer cancel()

	st := recv(t, states)
	require.Equal(t, uid, st.UserID)

	require.NoError(t, svc.Users.SetUserActive(ctx, uid, false))

	st = recv(t, states)
	assert.True(t, st.Ready)
	assert.Empty(t, st.UserID, "a deactivated profile clears the bound identity")
	assert.Nil(t, st.Profile)
}

func TestSubscribeSessionMissingProfile(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())

	states := make(chan SessionState, 8)
	cancel := svc.SubscribeSession(context.Background(), "ghost", func(st SessionState) { states <- st })
	defer cancel()

	st := recv(t, states)
	assert.True(t, st.Ready)
	assert.Empty(t, st.UserID)
}

func TestSubscribeSessionStoreErrorKeepsIdentity(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, newFakeUserRepo())
	store.failGet = true

	states := make(chan SessionState, 8)
	cancel := svc.SubscribeSession(context.Background(), "u1", func(st SessionState) { states <- st })
	defer cancel()

	st := recv(t, states)
	assert.True(t, st.Ready)
	assert.Equal(t, "u1", st.UserID, "a transient read failure must not revoke the session")
	assert.Nil(t, st.Profile)
}

func TestSubscribeUsers(t *testing.T) {
	store := newFakeStore()
	repo := newFakeUserRepo()
	svc := newSyncService(store, repo)
	ctx := context.Background()

	emissions := make(chan []entity.UserProfile, 8)
	cancel := svc.SubscribeUsers(ctx, func(users []entity.UserProfile) { emissions <- users })
	defer cancel()

	assert.Empty(t, recv(t, emissions))

	_, err := svc.Users.Register(ctx, RegisterInput{Name: "Aisha", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	users := recv(t, emissions)
	require.Len(t, users, 1)
	assert.Equal(t, "Aisha", users[0].Name)
	assert.False(t, users[0].IsActive)
}

var _ repository.DocumentStore = (*fakeStore)(nil)
