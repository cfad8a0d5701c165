package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/internal/domain/repository"
)

var (
	ErrListNameRequired = errors.New("list name is required")
	ErrItemNameRequired = errors.New("item name is required")
)

// ListService is the mutation gateway for lists and their items. Writes go
// to the document store only; callers see the result through the next
// subscription snapshot, never through a direct state update.
type ListService struct {
	Store        repository.DocumentStore
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESItemsIndex string
}

func NewListService(store repository.DocumentStore, logger *logrus.Logger, es *elasticsearch.Client, esItemsIndex string) *ListService {
	return &ListService{Store: store, Logger: logger, ES: es, ESItemsIndex: esItemsIndex}
}

type CreateListInput struct {
	Name        string
	Description string
	Owner       entity.UserProfile
}

// CreateList writes a new list document with the owner's identity captured
// as denormalized creator fields.
func (s *ListService) CreateList(ctx context.Context, in CreateListInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", ErrListNameRequired
	}
	data := map[string]any{
		"name":           name,
		"description":    strings.TrimSpace(in.Description),
		"createdBy":      in.Owner.UID,
		"createdByName":  in.Owner.Name,
		"createdByPhoto": strOrNull(in.Owner.PhotoURL),
	}
	return s.Store.Add(ctx, repository.Lists, data)
}

// Lists returns the current list collection, newest first.
func (s *ListService) Lists(ctx context.Context) ([]entity.ShoppingList, error) {
	docs, err := s.Store.List(ctx, repository.Lists, repository.CreatedDesc)
	if err != nil {
		return nil, err
	}
	return mapLists(docs), nil
}

type ListPatch struct {
	Name        *string
	Description *string
}

// UpdateList patches only the supplied fields; updatedAt is always refreshed.
func (s *ListService) UpdateList(ctx context.Context, listID string, patch ListPatch) error {
	data := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrListNameRequired
		}
		data["name"] = name
	}
	if patch.Description != nil {
		data["description"] = strings.TrimSpace(*patch.Description)
	}
	if len(data) == 0 {
		return nil
	}
	return s.Store.Update(ctx, repository.Lists, listID, data)
}

// DeleteList removes the list document and every item in its sub-collection
// as one atomic batch. A partially deleted list is never observable.
func (s *ListService) DeleteList(ctx context.Context, listID string) error {
	itemsCol := repository.ItemsOf(listID)
	items, err := s.Store.List(ctx, itemsCol, repository.CreatedAsc)
	if err != nil {
		return err
	}

	batch := s.Store.Batch()
	for _, item := range items {
		batch.Delete(itemsCol, item.ID)
	}
	batch.Delete(repository.Lists, listID)
	if err := batch.Commit(ctx); err != nil {
		return err
	}

	for _, item := range items {
		s.deindexItem(ctx, item.ID)
	}
	return nil
}

type CreateItemInput struct {
	Name     string
	Quantity string
	Notes    string
	User     entity.UserProfile
}

// CreateItem writes a new pending item with the creator's identity captured
// as denormalized fields.
func (s *ListService) CreateItem(ctx context.Context, listID string, in CreateItemInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", ErrItemNameRequired
	}
	data := map[string]any{
		"listId":         listID,
		"name":           name,
		"quantity":       strings.TrimSpace(in.Quantity),
		"notes":          strings.TrimSpace(in.Notes),
		"createdBy":      in.User.UID,
		"createdByName":  in.User.Name,
		"createdByPhoto": strOrNull(in.User.PhotoURL),
		"isPurchased":    false,
	}
	id, err := s.Store.Add(ctx, repository.ItemsOf(listID), data)
	if err != nil {
		return "", err
	}
	s.indexItem(ctx, listID, id)
	return id, nil
}

// Items returns one list's items in display order: pending before purchased,
// then by ascending creation time. An empty listID yields an empty set.
func (s *ListService) Items(ctx context.Context, listID string) ([]entity.ShoppingListItem, error) {
	if strings.TrimSpace(listID) == "" {
		return []entity.ShoppingListItem{}, nil
	}
	docs, err := s.Store.List(ctx, repository.ItemsOf(listID), repository.CreatedAsc)
	if err != nil {
		return nil, err
	}
	items := mapItems(docs)
	sortItems(items)
	return items, nil
}

type ItemPatch struct {
	Name     *string
	Quantity *string
	Notes    *string
}

// UpdateItem patches only the supplied fields; updatedAt is always refreshed.
func (s *ListService) UpdateItem(ctx context.Context, listID, itemID string, patch ItemPatch) error {
	data := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrItemNameRequired
		}
		data["name"] = name
	}
	if patch.Quantity != nil {
		data["quantity"] = strings.TrimSpace(*patch.Quantity)
	}
	if patch.Notes != nil {
		data["notes"] = strings.TrimSpace(*patch.Notes)
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.Store.Update(ctx, repository.ItemsOf(listID), itemID, data); err != nil {
		return err
	}
	s.indexItem(ctx, listID, itemID)
	return nil
}

// TogglePurchased flips the purchase state in a single patch. Transitioning
// to purchased stamps all four attribution fields; transitioning back clears
// all four. No intermediate state is ever written.
func (s *ListService) TogglePurchased(ctx context.Context, listID, itemID string, purchased bool, by entity.UserProfile) error {
	patch := map[string]any{"isPurchased": purchased}
	if purchased {
		patch["purchasedBy"] = by.UID
		patch["purchasedByName"] = by.Name
		patch["purchasedByPhoto"] = strOrNull(by.PhotoURL)
		patch["purchasedAt"] = repository.ServerTimestamp
	} else {
		patch["purchasedBy"] = nil
		patch["purchasedByName"] = nil
		patch["purchasedByPhoto"] = nil
		patch["purchasedAt"] = nil
	}
	if err := s.Store.Update(ctx, repository.ItemsOf(listID), itemID, patch); err != nil {
		return err
	}
	s.indexItem(ctx, listID, itemID)
	return nil
}

// DeleteItem removes a single item document.
func (s *ListService) DeleteItem(ctx context.Context, listID, itemID string) error {
	if err := s.Store.Delete(ctx, repository.ItemsOf(listID), itemID); err != nil {
		return err
	}
	s.deindexItem(ctx, itemID)
	return nil
}

// SearchItems matches q against item names, notes, and purchaser names
// within one list.
func (s *ListService) SearchItems(ctx context.Context, listID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESItemsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{"listId.keyword": listID},
				},
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"name^2", "notes", "purchasedByName"},
					},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESItemsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		src := h.Source
		if src == nil {
			src = map[string]any{}
		}
		src["id"] = h.ID
		out = append(out, src)
	}
	return out, nil
}

// indexItem refreshes the search index from the stored document, best effort.
func (s *ListService) indexItem(ctx context.Context, listID, itemID string) {
	if s.ES == nil || s.ESItemsIndex == "" {
		return
	}
	doc, err := s.Store.Get(ctx, repository.ItemsOf(listID), itemID)
	if err != nil || doc == nil {
		return
	}
	item := mapItem(*doc)
	body := map[string]any{
		"listId":          item.ListID,
		"name":            item.Name,
		"quantity":        item.Quantity,
		"notes":           item.Notes,
		"isPurchased":     item.IsPurchased,
		"purchasedByName": strOrEmpty(item.PurchasedByName),
	}
	b, _ := json.Marshal(body)
	req := esapi.IndexRequest{Index: s.ESItemsIndex, DocumentID: itemID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("item_id", itemID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("item_id", itemID).Warn("es index response error")
	}
}

func (s *ListService) deindexItem(ctx context.Context, itemID string) {
	if s.ES == nil || s.ESItemsIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESItemsIndex, DocumentID: itemID}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("item_id", itemID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

func strOrNull(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
