package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lorechronicle/allcodex"
	"lorechronicle/allknower"
)

// ragSearchTopK is the result count for the combined search endpoint; the
// dedicated /api/rag endpoint lets callers pick their own.
const ragSearchTopK = 15

type ragRequest struct {
	Text string `json:"text"`
	TopK int    `json:"topK"`
}

type brainDumpRequest struct {
	RawText string `json:"rawText"`
}

type consistencyRequest struct {
	NoteIDs []string `json:"noteIds"`
}

type relationshipsRequest struct {
	Text string `json:"text"`
}

func (s *server) Search(c echo.Context) error {
	query := c.QueryParam("q")
	mode := c.QueryParam("mode")

	if mode == "rag" {
		cr, svcErr := s.knowerCreds(c)
		if svcErr != nil {
			return s.serviceError(c, svcErr)
		}

		chunks, err := s.knower.QueryRag(c.Request().Context(), cr, query, ragSearchTopK)
		if err != nil {
			return s.serviceError(c, err)
		}

		if chunks == nil {
			chunks = []allknower.RagChunk{}
		}

		return c.JSON(http.StatusOK, echo.Map{"mode": "rag", "results": chunks})
	}

	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	if query == "" {
		query = defaultLoreQuery
	}

	notes, err := s.codex.SearchNotes(c.Request().Context(), cr, query)
	if err != nil {
		return s.serviceError(c, err)
	}

	if notes == nil {
		notes = []allcodex.Note{}
	}

	return c.JSON(http.StatusOK, echo.Map{"mode": "etapi", "results": notes})
}

func (s *server) Rag(c echo.Context) error {
	var req ragRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
	}

	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	chunks, err := s.knower.QueryRag(c.Request().Context(), cr, req.Text, req.TopK)
	if err != nil {
		return s.serviceError(c, err)
	}

	if chunks == nil {
		chunks = []allknower.RagChunk{}
	}

	return c.JSON(http.StatusOK, echo.Map{"results": chunks})
}

func (s *server) BrainDump(c echo.Context) error {
	var req brainDumpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.RawText == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rawText is required"})
	}

	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	result, err := s.knower.RunBrainDump(c.Request().Context(), cr, req.RawText)
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *server) BrainDumpHistory(c echo.Context) error {
	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	history, err := s.knower.BrainDumpHistory(c.Request().Context(), cr)
	if err != nil {
		return s.serviceError(c, err)
	}

	if history == nil {
		history = []allknower.BrainDumpHistoryEntry{}
	}

	return c.JSON(http.StatusOK, history)
}

func (s *server) Consistency(c echo.Context) error {
	var req consistencyRequest
	// An empty body means "check everything".
	_ = c.Bind(&req)

	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	result, err := s.knower.CheckConsistency(c.Request().Context(), cr, req.NoteIDs)
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *server) Gaps(c echo.Context) error {
	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	result, err := s.knower.DetectGaps(c.Request().Context(), cr)
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *server) Relationships(c echo.Context) error {
	var req relationshipsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
	}

	cr, svcErr := s.knowerCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	suggestions, err := s.knower.SuggestRelationships(c.Request().Context(), cr, req.Text)
	if err != nil {
		return s.serviceError(c, err)
	}

	if suggestions == nil {
		suggestions = []allknower.RelationshipSuggestion{}
	}

	return c.JSON(http.StatusOK, echo.Map{"suggestions": suggestions})
}
