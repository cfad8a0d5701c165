package router

import (
	"shoplist-backend/internal/application"
	"shoplist-backend/internal/container"
	pginfra "shoplist-backend/internal/infrastructure/postgres"
	handlers "shoplist-backend/internal/interface/http"
	"shoplist-backend/internal/interface/ws"
	"shoplist-backend/internal/router/modules"
)

type Deps struct {
	Users *application.UserService
	Lists *application.ListService
	Sync  *application.SyncService
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	users := &application.UserService{
		Repo:      pginfra.NewUserRepository(container.GetPGPool()),
		Store:     container.GetDocStore(),
		JWT:       container.GetJWT(),
		Redis:     container.GetRedis(),
		GCS:       container.GetGCS(),
		GCSBucket: cfg.GCSBucket,
		Logger:    logger,
		Pub:       container.GetRabbitPub(),
		AppName:   cfg.AppName,
	}

	lists := application.NewListService(container.GetDocStore(), logger, container.GetES(), cfg.ESItemsIndex)
	sync := application.NewSyncService(container.GetDocStore(), users, lists, logger)

	return Deps{Users: users, Lists: lists, Sync: sync}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()

	authHandler := handlers.NewAuthHandler(deps.Users, logger, cfg.CookieDomain, cfg.CookieSecure)
	listHandler := handlers.NewListHandler(deps.Lists, deps.Users, logger)
	userHandler := handlers.NewUserHandler(deps.Users, logger)
	syncHandler := ws.NewSyncHandler(deps.Sync, logger)

	r.Add(modules.NewAuthModule(authHandler, jwt))
	r.Add(modules.NewListModule(listHandler, jwt))
	r.Add(modules.NewUserModule(userHandler, jwt))
	r.Add(modules.NewSyncModule(syncHandler, jwt))
}
