package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"shoplist-backend/internal/container"
	handlers "shoplist-backend/internal/interface/http"
	"shoplist-backend/internal/interface/middleware"
	"shoplist-backend/pkg/helpers"
)

type ListModule struct {
	Handler *handlers.ListHandler
	JWT     *helpers.JWTManager
}

func NewListModule(h *handlers.ListHandler, jwt *helpers.JWTManager) *ListModule {
	return &ListModule{Handler: h, JWT: jwt}
}

func (m *ListModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID()))
	{
		auth.GET("/lists", m.Handler.GetLists)
		auth.POST("/lists", m.Handler.CreateList)
		auth.PATCH("/lists/:listId", m.Handler.UpdateList)
		auth.DELETE("/lists/:listId", m.Handler.DeleteList)

		auth.GET("/lists/:listId/items", m.Handler.GetItems)
		auth.POST("/lists/:listId/items", m.Handler.CreateItem)
		auth.GET("/lists/:listId/items/search", m.Handler.SearchItems)
		auth.PATCH("/lists/:listId/items/:itemId", m.Handler.UpdateItem)
		auth.PUT("/lists/:listId/items/:itemId/purchased", m.Handler.TogglePurchased)
		auth.DELETE("/lists/:listId/items/:itemId", m.Handler.DeleteItem)
	}
}
