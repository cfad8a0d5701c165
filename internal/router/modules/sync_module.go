package modules

import (
	"github.com/gin-gonic/gin"

	"shoplist-backend/internal/container"
	"shoplist-backend/internal/interface/middleware"
	"shoplist-backend/internal/interface/ws"
	"shoplist-backend/pkg/helpers"
)

type SyncModule struct {
	Handler *ws.SyncHandler
	JWT     *helpers.JWTManager
}

func NewSyncModule(h *ws.SyncHandler, jwt *helpers.JWTManager) *SyncModule {
	return &SyncModule{Handler: h, JWT: jwt}
}

// Register exposes the live snapshot stream. Browsers cannot set headers on
// a websocket handshake, so the auth middleware also accepts the token via
// query param here.
func (m *SyncModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.GET("/sync", m.Handler.Serve)
	}
}
