package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lorechronicle/allcodex"
	"lorechronicle/allknower"
	"lorechronicle/creds"
	"lorechronicle/models"
)

func newTestEcho(fallback creds.Fallback) *echo.Echo {
	e := echo.New()

	store := creds.NewCookieStore(fallback, false)
	srv := NewServer(store, allcodex.NewClient(), allknower.NewClient(), zap.NewNop())

	RegisterHandlers(e, srv)

	return e
}

func doJSON(e *echo.Echo, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) models.APIError {
	t.Helper()

	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))

	return apiErr
}

func TestHandlers_NotConfiguredShortCircuit(t *testing.T) {
	var upstreamCalls atomic.Int64

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
	}))
	defer upstream.Close()

	// URL configured, token missing: still not configured, and the
	// upstream must never be contacted.
	e := newTestEcho(creds.Fallback{AllCodexURL: upstream.URL, AllKnowerURL: upstream.URL})

	routes := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/lore", ""},
		{http.MethodGet, "/api/lore/n1", ""},
		{http.MethodGet, "/api/lore/n1/content", ""},
		{http.MethodGet, "/api/search", ""},
		{http.MethodPost, "/api/rag", `{"text":"q"}`},
		{http.MethodPost, "/api/brain-dump", `{"rawText":"x"}`},
		{http.MethodGet, "/api/brain-dump/history", ""},
		{http.MethodPost, "/api/ai/consistency", `{}`},
		{http.MethodGet, "/api/ai/gaps", ""},
		{http.MethodPost, "/api/ai/relationships", `{"text":"x"}`},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.target, func(t *testing.T) {
			rec := doJSON(e, route.method, route.target, route.body)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, models.CodeNotConfigured, decodeAPIError(t, rec).Error)
		})
	}

	assert.Zero(t, upstreamCalls.Load(), "no upstream call may happen before configuration")
}

func TestHandlers_ConnectStatusDisconnectRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/etapi/app-info":
			_ = json.NewEncoder(w).Encode(map[string]any{"appVersion": "0.63.5"})
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	e := newTestEcho(creds.Fallback{})

	// connect
	connectBody := `{"allcodex":{"url":"` + upstream.URL + `","token":"t1"},"allknower":{"url":"` + upstream.URL + `","token":"t2"}}`
	rec := doJSON(e, http.MethodPost, "/api/config/connect", connectBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var connectResp struct {
		Saved []string `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &connectResp))
	assert.ElementsMatch(t, []string{"allcodex", "allknower"}, connectResp.Saved)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 4)

	// status with the connect cookies: configured and live
	rec = doJSON(e, http.MethodGet, "/api/config/status", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]struct {
		OK         bool   `json:"ok"`
		Version    string `json:"version"`
		Configured bool   `json:"configured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.True(t, status["allcodex"].Configured)
	assert.True(t, status["allcodex"].OK)
	assert.Equal(t, "0.63.5", status["allcodex"].Version)
	assert.True(t, status["allknower"].Configured)
	assert.True(t, status["allknower"].OK)

	// disconnect allcodex only
	rec = doJSON(e, http.MethodDelete, "/api/config/disconnect?service=allcodex", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	expired := map[string]bool{}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			expired[cookie.Name] = true
		}
	}
	assert.True(t, expired["allcodex_url"])
	assert.True(t, expired["allcodex_token"])
	assert.False(t, expired["allknower_url"])

	// status without any cookies: not configured again
	rec = doJSON(e, http.MethodGet, "/api/config/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.False(t, status["allcodex"].Configured)
	assert.False(t, status["allcodex"].OK)
}

func TestHandlers_CreateLore(t *testing.T) {
	type upstreamCall struct {
		path string
		body map[string]any
	}

	var calls []upstreamCall

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, upstreamCall{path: r.URL.Path, body: body})

		switch r.URL.Path {
		case "/etapi/create-note":
			_ = json.NewEncoder(w).Encode(allcodex.CreatedNote{Note: allcodex.Note{NoteID: "aldric1", Title: "Aldric"}})
		case "/etapi/attributes":
			_ = json.NewEncoder(w).Encode(allcodex.Attribute{})
		}
	}))
	defer upstream.Close()

	e := newTestEcho(creds.Fallback{AllCodexURL: upstream.URL, AllCodexToken: "t"})

	rec := doJSON(e, http.MethodPost, "/api/lore", `{"title":"Aldric","loreType":"character"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, calls, 3)
	assert.Equal(t, "/etapi/create-note", calls[0].path)
	assert.Equal(t, "root", calls[0].body["parentNoteId"])
	assert.Equal(t, "aldric1", calls[1].body["noteId"])
	assert.Equal(t, "lore", calls[1].body["name"])
	assert.Equal(t, "aldric1", calls[2].body["noteId"])
	assert.Equal(t, "loreType", calls[2].body["name"])
	assert.Equal(t, "character", calls[2].body["value"])
}

func TestHandlers_CreateLoreValidation(t *testing.T) {
	e := newTestEcho(creds.Fallback{AllCodexURL: "http://x", AllCodexToken: "t"})

	rec := doJSON(e, http.MethodPost, "/api/lore", `{"loreType":"character"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_UpstreamUnauthorized(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	e := newTestEcho(creds.Fallback{AllCodexURL: upstream.URL, AllCodexToken: "stale"})

	rec := doJSON(e, http.MethodGet, "/api/lore", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.CodeUnauthorized, decodeAPIError(t, rec).Error)
}

func TestHandlers_UpstreamDownIsUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	e := newTestEcho(creds.Fallback{AllCodexURL: upstream.URL, AllCodexToken: "t"})

	rec := doJSON(e, http.MethodGet, "/api/lore", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, models.CodeUnreachable, decodeAPIError(t, rec).Error)
}

func TestHandlers_SearchModes(t *testing.T) {
	var ragCalled, etapiCalled bool

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rag/query":
			ragCalled = true

			_ = json.NewEncoder(w).Encode(map[string]any{"chunks": []allknower.RagChunk{{NoteID: "n1"}}})
		case "/etapi/notes":
			etapiCalled = true

			_ = json.NewEncoder(w).Encode(map[string]any{"results": []allcodex.Note{{NoteID: "n2"}}})
		}
	}))
	defer upstream.Close()

	e := newTestEcho(creds.Fallback{
		AllCodexURL:    upstream.URL,
		AllCodexToken:  "t1",
		AllKnowerURL:   upstream.URL,
		AllKnowerToken: "t2",
	})

	rec := doJSON(e, http.MethodGet, "/api/search?q=dragons&mode=rag", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ragCalled)
	assert.Contains(t, rec.Body.String(), `"mode":"rag"`)

	rec = doJSON(e, http.MethodGet, "/api/search?q=%23lore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, etapiCalled)
	assert.Contains(t, rec.Body.String(), `"mode":"etapi"`)
}

func TestHandlers_LoreContentPassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte("<p>ancient history</p>"))
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer upstream.Close()

	e := newTestEcho(creds.Fallback{AllCodexURL: upstream.URL, AllCodexToken: "t"})

	rec := doJSON(e, http.MethodGet, "/api/lore/n1/content", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "<p>ancient history</p>", rec.Body.String())

	rec = doJSON(e, http.MethodPut, "/api/lore/n1/content", "<p>revised</p>")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlers_ConnectValidation(t *testing.T) {
	e := newTestEcho(creds.Fallback{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: `{}`},
		{name: "missing token", body: `{"allcodex":{"url":"http://x"}}`},
		{name: "missing url", body: `{"allknower":{"token":"t"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/config/connect", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlers_Healthz(t *testing.T) {
	e := newTestEcho(creds.Fallback{})

	rec := doJSON(e, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
