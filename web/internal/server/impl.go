package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"lorechronicle/allcodex"
	"lorechronicle/allknower"
	"lorechronicle/creds"
	"lorechronicle/models"
)

type server struct {
	store  creds.Store
	codex  *allcodex.Client
	knower *allknower.Client
	logger *zap.Logger
}

func NewServer(store creds.Store, codex *allcodex.Client, knower *allknower.Client, logger *zap.Logger) Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	ans := server{
		store:  store,
		codex:  codex,
		knower: knower,
		logger: logger,
	}

	return &ans
}

func (s *server) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// serviceError terminates the request with the normalized taxonomy
// response. Every failure path in every handler funnels through here.
func (s *server) serviceError(c echo.Context, err error) error {
	svcErr := models.Normalize(err)

	s.logger.Warn("upstream call failed",
		zap.String("path", c.Request().URL.Path),
		zap.String("code", string(svcErr.Code)),
		zap.Int("status", svcErr.Status),
		zap.String("message", svcErr.Message),
	)

	return c.JSON(svcErr.Status, models.APIError{Error: svcErr.Code, Message: svcErr.Message})
}

// codexCreds resolves AllCodex credentials and short-circuits with
// NOT_CONFIGURED before any upstream call when they are incomplete.
func (s *server) codexCreds(c echo.Context) (creds.ServiceCredentials, *models.ServiceError) {
	cr, err := s.store.Resolve(creds.ServiceAllCodex, c.Request())
	if err != nil {
		return creds.ServiceCredentials{}, models.Normalize(err)
	}

	if !cr.Configured() {
		return creds.ServiceCredentials{}, models.NotConfigured("AllCodex")
	}

	return cr, nil
}

func (s *server) knowerCreds(c echo.Context) (creds.ServiceCredentials, *models.ServiceError) {
	cr, err := s.store.Resolve(creds.ServiceAllKnower, c.Request())
	if err != nil {
		return creds.ServiceCredentials{}, models.Normalize(err)
	}

	if !cr.Configured() {
		return creds.ServiceCredentials{}, models.NotConfigured("AllKnower")
	}

	return cr, nil
}
