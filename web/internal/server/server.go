package server

import "github.com/labstack/echo/v4"

type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

type Server interface {
	Healthz(c echo.Context) error

	ListLore(c echo.Context) error
	CreateLore(c echo.Context) error
	GetLore(c echo.Context) error
	PatchLore(c echo.Context) error
	DeleteLore(c echo.Context) error
	GetLoreContent(c echo.Context) error
	PutLoreContent(c echo.Context) error

	Search(c echo.Context) error
	Rag(c echo.Context) error
	BrainDump(c echo.Context) error
	BrainDumpHistory(c echo.Context) error
	Consistency(c echo.Context) error
	Gaps(c echo.Context) error
	Relationships(c echo.Context) error

	Connect(c echo.Context) error
	Disconnect(c echo.Context) error
	Status(c echo.Context) error
	AllCodexLogin(c echo.Context) error
	AllKnowerLogin(c echo.Context) error
}

func RegisterHandlers(router EchoRouter, si Server, _ ...echo.MiddlewareFunc) {
	router.GET("/healthz", si.Healthz).Name = "healthz"

	router.GET("/api/lore", si.ListLore).Name = "lore-list"
	router.POST("/api/lore", si.CreateLore).Name = "lore-create"
	router.GET("/api/lore/:id", si.GetLore).Name = "lore-get"
	router.PATCH("/api/lore/:id", si.PatchLore).Name = "lore-patch"
	router.DELETE("/api/lore/:id", si.DeleteLore).Name = "lore-delete"
	router.GET("/api/lore/:id/content", si.GetLoreContent).Name = "lore-content-get"
	router.PUT("/api/lore/:id/content", si.PutLoreContent).Name = "lore-content-put"

	router.GET("/api/search", si.Search).Name = "search"
	router.POST("/api/rag", si.Rag).Name = "rag"
	router.POST("/api/brain-dump", si.BrainDump).Name = "brain-dump"
	router.GET("/api/brain-dump/history", si.BrainDumpHistory).Name = "brain-dump-history"
	router.POST("/api/ai/consistency", si.Consistency).Name = "ai-consistency"
	router.GET("/api/ai/gaps", si.Gaps).Name = "ai-gaps"
	router.POST("/api/ai/relationships", si.Relationships).Name = "ai-relationships"

	router.POST("/api/config/connect", si.Connect).Name = "config-connect"
	router.DELETE("/api/config/disconnect", si.Disconnect).Name = "config-disconnect"
	router.GET("/api/config/status", si.Status).Name = "config-status"
	router.POST("/api/config/allcodex-login", si.AllCodexLogin).Name = "config-allcodex-login"
	router.POST("/api/config/allknower-login", si.AllKnowerLogin).Name = "config-allknower-login"
}
