package application

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newListService(store *fakeStore) *ListService {
	return NewListService(store, testLogger(), nil, "")
}

func aisha() entity.UserProfile {
	photo := "https://storage.googleapis.com/bucket/avatars/u1/1.png"
	return entity.UserProfile{UID: "u1", Name: "Aisha", PhotoURL: &photo, IsActive: true}
}

func ben() entity.UserProfile {
	return entity.UserProfile{UID: "u2", Name: "Ben", IsActive: true}
}

func TestCreateListTrimsAndDenormalizesOwner(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)

	id, err := svc.CreateList(context.Background(), CreateListInput{
		Name:        "  Weekly groceries  ",
		Description: " staples ",
		Owner:       aisha(),
	})
	require.NoError(t, err)

	data := store.raw(repository.Lists, id)
	assert.Equal(t, "Weekly groceries", data["name"])
	assert.Equal(t, "staples", data["description"])
	assert.Equal(t, "u1", data["createdBy"])
	assert.Equal(t, "Aisha", data["createdByName"])
	assert.Equal(t, *aisha().PhotoURL, data["createdByPhoto"])
}

func TestCreateListRejectsBlankName(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)

	_, err := svc.CreateList(context.Background(), CreateListInput{Name: "   ", Owner: aisha()})
	assert.ErrorIs(t, err, ErrListNameRequired)
	assert.Zero(t, store.count(repository.Lists), "rejected create must not write")
}

func TestListsNewestFirst(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	_, err := svc.CreateList(ctx, CreateListInput{Name: "Weekly", Owner: aisha()})
	require.NoError(t, err)
	_, err = svc.CreateList(ctx, CreateListInput{Name: "Party", Owner: ben()})
	require.NoError(t, err)

	lists, err := svc.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Party", lists[0].Name)
	assert.Equal(t, "Weekly", lists[1].Name)
}

func TestListsMapMissingFieldsToDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	// document saved without a name or description, e.g. by a buggy client
	_, err := store.Add(ctx, repository.Lists, map[string]any{"createdBy": 42})
	require.NoError(t, err)

	lists, err := svc.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Unnamed list", lists[0].Name)
	assert.Equal(t, "", lists[0].Description)
	assert.Equal(t, "", lists[0].CreatedBy, "non-string field degrades to empty")
	assert.Nil(t, lists[0].CreatedByPhoto)
}

func TestUpdateListPatchSemantics(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateList(ctx, CreateListInput{Name: "Weekly", Description: "staples", Owner: aisha()})
	require.NoError(t, err)

	name := "  Weekend  "
	require.NoError(t, svc.UpdateList(ctx, id, ListPatch{Name: &name}))
	data := store.raw(repository.Lists, id)
	assert.Equal(t, "Weekend", data["name"])
	assert.Equal(t, "staples", data["description"], "untouched field survives a partial patch")

	blank := "   "
	assert.ErrorIs(t, svc.UpdateList(ctx, id, ListPatch{Name: &blank}), ErrListNameRequired)

	assert.NoError(t, svc.UpdateList(ctx, id, ListPatch{}), "empty patch is a no-op")
}

func TestDeleteListRemovesAllItems(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateList(ctx, CreateListInput{Name: "Weekly", Owner: aisha()})
	require.NoError(t, err)
	for _, name := range []string{"Milk 2L", "Bread", "Eggs"} {
		_, err := svc.CreateItem(ctx, id, CreateItemInput{Name: name, User: aisha()})
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.count(repository.ItemsOf(id)))

	require.NoError(t, svc.DeleteList(ctx, id))
	assert.Zero(t, store.count(repository.Lists))
	assert.Zero(t, store.count(repository.ItemsOf(id)), "no orphaned items after list removal")
}

func TestCreateItemStartsPending(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: " Milk 2L ", Quantity: "2", User: ben()})
	require.NoError(t, err)

	data := store.raw(repository.ItemsOf("l1"), id)
	assert.Equal(t, "Milk 2L", data["name"])
	assert.Equal(t, false, data["isPurchased"])
	assert.Equal(t, "l1", data["listId"])
	assert.Equal(t, "u2", data["createdBy"])
	assert.Nil(t, data["purchasedBy"])
}

func TestItemsEmptyListIDYieldsEmptySet(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)

	items, err := svc.Items(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemsDisplayOrder(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk 2L", User: aisha()})
	require.NoError(t, err)
	second, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Bread", User: aisha()})
	require.NoError(t, err)
	third, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Eggs", User: aisha()})
	require.NoError(t, err)

	// purchasing the oldest item moves it behind every pending one
	require.NoError(t, svc.TogglePurchased(ctx, "l1", first, true, ben()))

	items, err := svc.Items(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, second, items[0].ID)
	assert.Equal(t, third, items[1].ID)
	assert.Equal(t, first, items[2].ID)

	// un-purchasing restores pure creation order
	require.NoError(t, svc.TogglePurchased(ctx, "l1", first, false, ben()))
	items, err = svc.Items(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []string{first, second, third}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestTogglePurchasedStampsFullAttribution(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk 2L", User: aisha()})
	require.NoError(t, err)

	require.NoError(t, svc.TogglePurchased(ctx, "l1", id, true, ben()))
	data := store.raw(repository.ItemsOf("l1"), id)
	assert.Equal(t, true, data["isPurchased"])
	assert.Equal(t, "u2", data["purchasedBy"])
	assert.Equal(t, "Ben", data["purchasedByName"])
	assert.Nil(t, data["purchasedByPhoto"], "purchaser without a photo stores null, not absent")
	assert.NotNil(t, data["purchasedAt"], "purchase time is stamped by the store clock")

	items, err := svc.Items(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, items[0].PurchasedBy)
	assert.Equal(t, "u2", *items[0].PurchasedBy)
	assert.NotNil(t, items[0].PurchasedAt)
}

func TestTogglePurchasedClearsFullAttribution(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk 2L", User: aisha()})
	require.NoError(t, err)
	require.NoError(t, svc.TogglePurchased(ctx, "l1", id, true, ben()))
	require.NoError(t, svc.TogglePurchased(ctx, "l1", id, false, ben()))

	data := store.raw(repository.ItemsOf("l1"), id)
	assert.Equal(t, false, data["isPurchased"])
	assert.Nil(t, data["purchasedBy"])
	assert.Nil(t, data["purchasedByName"])
	assert.Nil(t, data["purchasedByPhoto"])
	assert.Nil(t, data["purchasedAt"])

	items, err := svc.Items(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, items[0].PurchasedBy)
	assert.Nil(t, items[0].PurchasedAt)
}

func TestTogglePurchasedMissingItem(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)

	err := svc.TogglePurchased(context.Background(), "l1", "ghost", true, ben())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateItemPatchSemantics(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk", Quantity: "1", User: aisha()})
	require.NoError(t, err)

	qty := "2"
	notes := " skimmed "
	require.NoError(t, svc.UpdateItem(ctx, "l1", id, ItemPatch{Quantity: &qty, Notes: &notes}))
	data := store.raw(repository.ItemsOf("l1"), id)
	assert.Equal(t, "Milk", data["name"])
	assert.Equal(t, "2", data["quantity"])
	assert.Equal(t, "skimmed", data["notes"])

	blank := ""
	assert.ErrorIs(t, svc.UpdateItem(ctx, "l1", id, ItemPatch{Name: &blank}), ErrItemNameRequired)
}

func TestDeleteItem(t *testing.T) {
	store := newFakeStore()
	svc := newListService(store)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "l1", CreateItemInput{Name: "Milk", User: aisha()})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteItem(ctx, "l1", id))
	assert.Zero(t, store.count(repository.ItemsOf("l1")))
}
