package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"shoplist-backend/internal/container"
	handlers "shoplist-backend/internal/interface/http"
	"shoplist-backend/internal/interface/middleware"
	"shoplist-backend/pkg/helpers"
)

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()))
	{
		auth.GET("/users", m.Handler.GetUsers)
		auth.PATCH("/users/:uid/active", m.Handler.SetActive)

		auth.GET("/profile", m.Handler.GetMe)
		auth.PUT("/profile", m.Handler.UpdateMe)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
	}
}
