package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"lorechronicle/creds"
)

const (
	probeTimeout = 5 * time.Second
	loginTimeout = 8 * time.Second
)

type credentialPair struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

type connectRequest struct {
	AllCodex  *credentialPair `json:"allcodex"`
	AllKnower *credentialPair `json:"allknower"`
}

type allCodexLoginRequest struct {
	URL      string `json:"url"`
	Password string `json:"password"`
}

type allKnowerLoginRequest struct {
	URL      string `json:"url"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// serviceStatus is one half of the status response. URL is a pointer so an
// unconfigured service serializes as null rather than "".
type serviceStatus struct {
	OK         bool    `json:"ok"`
	Version    string  `json:"version,omitempty"`
	Error      string  `json:"error,omitempty"`
	URL        *string `json:"url"`
	Configured bool    `json:"configured"`
}

// Connect stores pre-acquired tokens. No upstream validation happens here;
// the status endpoint is the place that actually probes.
func (s *server) Connect(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var saved []string

	if req.AllCodex != nil && req.AllCodex.URL != "" && req.AllCodex.Token != "" {
		if err := s.store.Persist(creds.ServiceAllCodex, req.AllCodex.URL, req.AllCodex.Token, c.Request(), c.Response()); err != nil {
			return s.serviceError(c, err)
		}

		saved = append(saved, creds.ServiceAllCodex)
	}

	if req.AllKnower != nil && req.AllKnower.URL != "" && req.AllKnower.Token != "" {
		if err := s.store.Persist(creds.ServiceAllKnower, req.AllKnower.URL, req.AllKnower.Token, c.Request(), c.Response()); err != nil {
			return s.serviceError(c, err)
		}

		saved = append(saved, creds.ServiceAllKnower)
	}

	if len(saved) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid credentials provided"})
	}

	return c.JSON(http.StatusOK, echo.Map{"saved": saved})
}

func (s *server) Disconnect(c echo.Context) error {
	service := c.QueryParam("service")
	if service == "" {
		service = creds.ServiceAll
	}

	switch service {
	case creds.ServiceAllCodex, creds.ServiceAllKnower, creds.ServiceAll:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown service"})
	}

	if err := s.store.Clear(service, c.Request(), c.Response()); err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"disconnected": service})
}

// Status reports live connectivity for both services, probing them
// concurrently. Probe failures are reported inline rather than through the
// error contract: this endpoint is the configuration surface itself.
func (s *server) Status(c echo.Context) error {
	codexCreds, err := s.store.Resolve(creds.ServiceAllCodex, c.Request())
	if err != nil {
		return s.serviceError(c, err)
	}

	knowerCreds, err := s.store.Resolve(creds.ServiceAllKnower, c.Request())
	if err != nil {
		return s.serviceError(c, err)
	}

	codexStatus := serviceStatus{URL: nullable(codexCreds.URL), Configured: codexCreds.Configured()}
	knowerStatus := serviceStatus{URL: nullable(knowerCreds.URL), Configured: knowerCreds.Configured()}

	g, ctx := errgroup.WithContext(c.Request().Context())

	g.Go(func() error {
		if !codexCreds.Configured() {
			codexStatus.Error = "not configured"

			return nil
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		info, err := s.codex.AppInfo(probeCtx, codexCreds)
		if err != nil {
			codexStatus.Error = err.Error()

			return nil
		}

		codexStatus.OK = true
		codexStatus.Version = info.AppVersion

		return nil
	})

	g.Go(func() error {
		if !knowerCreds.Configured() {
			knowerStatus.Error = "not configured"

			return nil
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		if err := s.knower.Health(probeCtx, knowerCreds); err != nil {
			knowerStatus.Error = err.Error()

			return nil
		}

		knowerStatus.OK = true

		return nil
	})

	// Probe goroutines never return errors; failures land in the per
	// service status fields.
	_ = g.Wait()

	return c.JSON(http.StatusOK, echo.Map{
		"allcodex":  codexStatus,
		"allknower": knowerStatus,
	})
}

// AllCodexLogin exchanges a password for an ETAPI token and persists the
// pair on success.
func (s *server) AllCodexLogin(c echo.Context) error {
	var req allCodexLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.URL == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), loginTimeout)
	defer cancel()

	token, err := s.codex.Login(ctx, req.URL, req.Password)
	if err != nil {
		return s.serviceError(c, err)
	}

	if err := s.store.Persist(creds.ServiceAllCodex, req.URL, token, c.Request(), c.Response()); err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// AllKnowerLogin signs in with email and password and persists the
// session token on success.
func (s *server) AllKnowerLogin(c echo.Context) error {
	var req allKnowerLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.URL == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url, email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), loginTimeout)
	defer cancel()

	token, user, err := s.knower.Login(ctx, req.URL, req.Email, req.Password)
	if err != nil {
		return s.serviceError(c, err)
	}

	if err := s.store.Persist(creds.ServiceAllKnower, req.URL, token, c.Request(), c.Response()); err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": user})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
