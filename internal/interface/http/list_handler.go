package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/application"
	"shoplist-backend/internal/domain/entity"
	"shoplist-backend/pkg/response"
	"shoplist-backend/pkg/validation"
)

type ListHandler struct {
	Lists  *application.ListService
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewListHandler(lists *application.ListService, users *application.UserService, logger *logrus.Logger) *ListHandler {
	return &ListHandler{Lists: lists, Users: users, Logger: logger}
}

type createListRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type createItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes"`
}

type updateItemRequest struct {
	Name     *string `json:"name"`
	Quantity *string `json:"quantity"`
	Notes    *string `json:"notes"`
}

type togglePurchasedRequest struct {
	Purchased *bool `json:"purchased" binding:"required"`
}

// caller resolves the acting user's profile; mutations denormalize its
// identity into created/purchased attribution fields.
func (h *ListHandler) caller(c *gin.Context) (entity.UserProfile, bool) {
	uid := c.GetString("userID")
	profile, err := h.Users.GetProfile(c.Request.Context(), uid)
	if err != nil {
		status, msg := userMessage(err)
		response.Error[any](c, status, msg, nil)
		return entity.UserProfile{}, false
	}
	return *profile, true
}

func (h *ListHandler) fail(c *gin.Context, err error, op string) {
	status, msg := userMessage(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).Error(op + " failed")
	}
	response.Error[any](c, status, msg, nil)
}

// GetLists returns the current snapshot; live consumers use the sync socket.
func (h *ListHandler) GetLists(c *gin.Context) {
	lists, err := h.Lists.Lists(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list lists")
		return
	}
	response.Success(c, http.StatusOK, lists, "lists", nil)
}

func (h *ListHandler) CreateList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	id, err := h.Lists.CreateList(c.Request.Context(), application.CreateListInput{
		Name:        req.Name,
		Description: req.Description,
		Owner:       owner,
	})
	if err != nil {
		h.fail(c, err, "create list")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": id}, "List created successfully!", nil)
}

func (h *ListHandler) UpdateList(c *gin.Context) {
	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Lists.UpdateList(c.Request.Context(), c.Param("listId"), application.ListPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err, "update list")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "List updated.", nil)
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	if err := h.Lists.DeleteList(c.Request.Context(), c.Param("listId")); err != nil {
		h.fail(c, err, "delete list")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "List removed.", nil)
}

func (h *ListHandler) GetItems(c *gin.Context) {
	items, err := h.Lists.Items(c.Request.Context(), c.Param("listId"))
	if err != nil {
		h.fail(c, err, "list items")
		return
	}
	response.Success(c, http.StatusOK, items, "items", nil)
}

func (h *ListHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	user, ok := h.caller(c)
	if !ok {
		return
	}
	id, err := h.Lists.CreateItem(c.Request.Context(), c.Param("listId"), application.CreateItemInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Notes:    req.Notes,
		User:     user,
	})
	if err != nil {
		h.fail(c, err, "create item")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": id}, "Item added successfully!", nil)
}

func (h *ListHandler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Lists.UpdateItem(c.Request.Context(), c.Param("listId"), c.Param("itemId"), application.ItemPatch{
		Name:     req.Name,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		h.fail(c, err, "update item")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "Item updated.", nil)
}

func (h *ListHandler) TogglePurchased(c *gin.Context) {
	var req togglePurchasedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Purchased == nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	user, ok := h.caller(c)
	if !ok {
		return
	}
	err := h.Lists.TogglePurchased(c.Request.Context(), c.Param("listId"), c.Param("itemId"), *req.Purchased, user)
	if err != nil {
		h.fail(c, err, "toggle purchased")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"purchased": *req.Purchased}, "Item updated.", nil)
}

func (h *ListHandler) DeleteItem(c *gin.Context) {
	if err := h.Lists.DeleteItem(c.Request.Context(), c.Param("listId"), c.Param("itemId")); err != nil {
		h.fail(c, err, "delete item")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "Item removed.", nil)
}

// SearchItems queries the item index within one list.
func (h *ListHandler) SearchItems(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Success(c, http.StatusOK, []map[string]any{}, "items", nil)
		return
	}
	hits, err := h.Lists.SearchItems(c.Request.Context(), c.Param("listId"), q, 20)
	if err != nil {
		h.fail(c, err, "search items")
		return
	}
	response.Success(c, http.StatusOK, hits, "items", nil)
}
