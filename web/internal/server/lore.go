package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"lorechronicle/allcodex"
)

const defaultLoreQuery = "#lore"

type createLoreRequest struct {
	Title        string `json:"title"`
	LoreType     string `json:"loreType"`
	ParentNoteID string `json:"parentNoteId"`
	Content      string `json:"content"`
}

func (s *server) ListLore(c echo.Context) error {
	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	query := c.QueryParam("q")
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

	return c.JSON(http.StatusOK, notes)
}

func (s *server) CreateLore(c echo.Context) error {
	var req createLoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	created, err := s.codex.CreateLoreNote(c.Request().Context(), cr, req.Title, req.LoreType, req.ParentNoteID, req.Content)
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (s *server) GetLore(c echo.Context) error {
	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	note, err := s.codex.GetNote(c.Request().Context(), cr, c.Param("id"))
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, note)
}

func (s *server) PatchLore(c echo.Context) error {
	var patch allcodex.NotePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	note, err := s.codex.PatchNote(c.Request().Context(), cr, c.Param("id"), patch)
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, note)
}

func (s *server) DeleteLore(c echo.Context) error {
	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	if err := s.codex.DeleteNote(c.Request().Context(), cr, c.Param("id")); err != nil {
		return s.serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *server) GetLoreContent(c echo.Context) error {
	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	html, err := s.codex.GetNoteContent(c.Request().Context(), cr, c.Param("id"))
	if err != nil {
		return s.serviceError(c, err)
	}

	return c.Blob(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *server) PutLoreContent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	cr, svcErr := s.codexCreds(c)
	if svcErr != nil {
		return s.serviceError(c, svcErr)
	}

	if err := s.codex.PutNoteContent(c.Request().Context(), cr, c.Param("id"), string(body)); err != nil {
		return s.serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
