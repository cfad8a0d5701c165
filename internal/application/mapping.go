package application

import (
	"sort"
	"time"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
)

// Placeholder shown for lists saved without a name.
const unnamedList = "Unnamed list"

// View-model mapping. Documents arrive schemaless and possibly half-written;
// absent or malformed fields degrade to defaults instead of failing the
// snapshot.

func mapList(doc repository.Document) entity.ShoppingList {
	created := doc.CreatedAt
	updated := doc.UpdatedAt
	return entity.ShoppingList{
		ID:             doc.ID,
		Name:           strField(doc.Data, "name", unnamedList),
		Description:    strField(doc.Data, "description", ""),
		CreatedBy:      strField(doc.Data, "createdBy", ""),
		CreatedByName:  strField(doc.Data, "createdByName", ""),
		CreatedByPhoto: strPtrField(doc.Data, "createdByPhoto"),
		CreatedAt:      &created,
		UpdatedAt:      &updated,
	}
}

func mapLists(docs []repository.Document) []entity.ShoppingList {
	lists := make([]entity.ShoppingList, 0, len(docs))
	for _, doc := range docs {
		lists = append(lists, mapList(doc))
	}
	return lists
}

func mapItem(doc repository.Document) entity.ShoppingListItem {
	created := doc.CreatedAt
	updated := doc.UpdatedAt
	return entity.ShoppingListItem{
		ID:               doc.ID,
		ListID:           strField(doc.Data, "listId", ""),
		Name:             strField(doc.Data, "name", ""),
		Quantity:         strField(doc.Data, "quantity", ""),
		Notes:            strField(doc.Data, "notes", ""),
		CreatedBy:        strField(doc.Data, "createdBy", ""),
		CreatedByName:    strField(doc.Data, "createdByName", ""),
		CreatedByPhoto:   strPtrField(doc.Data, "createdByPhoto"),
		IsPurchased:      boolField(doc.Data, "isPurchased"),
		PurchasedBy:      strPtrField(doc.Data, "purchasedBy"),
		PurchasedByName:  strPtrField(doc.Data, "purchasedByName"),
		PurchasedByPhoto: strPtrField(doc.Data, "purchasedByPhoto"),
		PurchasedAt:      timePtrField(doc.Data, "purchasedAt"),
		CreatedAt:        &created,
		UpdatedAt:        &updated,
	}
}

func mapItems(docs []repository.Document) []entity.ShoppingListItem {
	items := make([]entity.ShoppingListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, mapItem(doc))
	}
	return items
}

func mapProfile(doc repository.Document) *entity.UserProfile {
	created := doc.CreatedAt
	updated := doc.UpdatedAt
	return &entity.UserProfile{
		UID:       doc.ID,
		Email:     strField(doc.Data, "email", ""),
		Name:      strField(doc.Data, "name", ""),
		PhotoURL:  strPtrField(doc.Data, "photoURL"),
		Bio:       strField(doc.Data, "bio", ""),
		IsActive:  boolField(doc.Data, "isActive"),
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

func mapProfiles(docs []repository.Document) []entity.UserProfile {
	users := make([]entity.UserProfile, 0, len(docs))
	for _, doc := range docs {
		users = append(users, *mapProfile(doc))
	}
	return users
}

// sortItems applies the display order: unpurchased before purchased, then by
// ascending creation time within each group. The sort is stable so equal
// timestamps keep their store order.
func sortItems(items []entity.ShoppingListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsPurchased != b.IsPurchased {
			return !a.IsPurchased
		}
		at, bt := timeOrZero(a.CreatedAt), timeOrZero(b.CreatedAt)
		return at.Before(bt)
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func strField(data map[string]any, key, def string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return def
}

func strPtrField(data map[string]any, key string) *string {
	if v, ok := data[key].(string); ok {
		return &v
	}
	return nil
}

func boolField(data map[string]any, key string) bool {
	v, ok := data[key].(bool)
	return ok && v
}

func timePtrField(data map[string]any, key string) *time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return &v
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	return nil
}
