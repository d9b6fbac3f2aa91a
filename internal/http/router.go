package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/keyreg/internal/config"
	"github.com/geocoder89/keyreg/internal/http/handlers"
	"github.com/geocoder89/keyreg/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// UserStore is what the router needs from the users table. Both the
// postgres and the in-memory repositories satisfy it.
type UserStore interface {
	handlers.UserReader
	handlers.UserCreator
}

func NewRouter(log *slog.Logger, cfg config.Config, users UserStore, ping func(ctx context.Context) error) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	emailHandler := handlers.NewEmailHandler(users, log, cfg.StoreTimeout)
	usersHandler := handlers.NewUsersHandler(users, log, cfg.StoreTimeout)

	r.GET("/email/:email", emailHandler.CheckEmail)
	r.POST("/users", middlewares.RequireJSON(), usersHandler.CreateUser)

	return r
}
