// Package web boots the portal's HTTP server.
package web

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"lorechronicle/allcodex"
	"lorechronicle/allknower"
	"lorechronicle/creds"
	"lorechronicle/web/internal/server"
	portalmw "lorechronicle/web/middleware"
)

type Config struct {
	Addr        string
	Debug       bool
	CORSOrigins []string
	Store       creds.Store
	AllCodex    *allcodex.Client
	AllKnower   *allknower.Client
	Logger      *zap.Logger
}

func Start(ctx context.Context, cfg Config) error {
	e := echo.New()
	e.Debug = cfg.Debug
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(portalmw.SecurityHeaders)

	if len(cfg.CORSOrigins) > 0 {
		e.Use(portalmw.CORS(cfg.CORSOrigins...))
	}

	srv := server.NewServer(cfg.Store, cfg.AllCodex, cfg.AllKnower, cfg.Logger)

	server.RegisterHandlers(e, srv)

	go func() {
		<-ctx.Done()

		_ = e.Shutdown(context.Background())
	}()

	return e.Start(cfg.Addr)
}
