package entity

import "time"

// ShoppingList is the view model for a document in the lists collection.
// CreatedByName/CreatedByPhoto are denormalized snapshots captured when the
// list was created; they are not kept in sync with later profile edits.
type ShoppingList struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CreatedBy      string     `json:"createdBy"`
	CreatedByName  string     `json:"createdByName"`
	CreatedByPhoto *string    `json:"createdByPhoto"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// ShoppingListItem is the view model for a document in a list's items
// sub-collection. The purchase attribution fields are all-or-nothing: either
// the item is purchased and all four are set, or it is pending and all four
// are nil.
type ShoppingListItem struct {
	ID               string     `json:"id"`
	ListID           string     `json:"listId"`
	Name             string     `json:"name"`
	Quantity         string     `json:"quantity"`
	Notes            string     `json:"notes"`
	CreatedBy        string     `json:"createdBy"`
	CreatedByName    string     `json:"createdByName"`
	CreatedByPhoto   *string    `json:"createdByPhoto"`
	IsPurchased      bool       `json:"isPurchased"`
	PurchasedBy      *string    `json:"purchasedBy"`
	PurchasedByName  *string    `json:"purchasedByName"`
	PurchasedByPhoto *string    `json:"purchasedByPhoto"`
	PurchasedAt      *time.Time `json:"purchasedAt"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}
