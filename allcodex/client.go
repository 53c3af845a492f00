// Package allcodex is the client for the AllCodex note store's ETAPI.
//
// Auth is HTTP Basic with the ETAPI token as the username and an empty
// password. Credentials are passed per call; the client itself is
// stateless and safe for concurrent use.
package allcodex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lorechronicle/creds"
	"lorechronicle/models"
)

const (
	serviceName = "AllCodex"
	apiPrefix   = "/etapi"

	// RootNoteID is the upstream's conventional root container. Notes
	// created without an explicit parent land under it.
	RootNoteID = "root"

	defaultTimeout = 8 * time.Second
	searchLimit    = 200
)

// Client performs authenticated calls against an AllCodex instance.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with the default bounded timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func basicAuth(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":"))
}

// doRequest performs one ETAPI call and classifies every failure: transport
// errors become UNREACHABLE, 401 becomes UNAUTHORIZED, any other non-2xx
// becomes SERVICE_ERROR with the upstream body preserved.
func (c *Client) doRequest(ctx context.Context, cr creds.ServiceCredentials, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, cr.URL+apiPrefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", basicAuth(cr.Token))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.Unreachable(serviceName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.Unreachable(serviceName, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, models.Unauthorized(serviceName)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.UpstreamError(serviceName, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (c *Client) doJSON(ctx context.Context, cr creds.ServiceCredentials, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	respBody, err := c.doRequest(ctx, cr, method, path, "application/json", body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return models.UpstreamError(serviceName, http.StatusOK, "invalid JSON in response: "+err.Error())
	}

	return nil
}

// SearchNotes runs an AllCodex search query, e.g. "#lore" or
// "#loreType=character".
func (c *Client) SearchNotes(ctx context.Context, cr creds.ServiceCredentials, query string) ([]Note, error) {
	path := fmt.Sprintf("/notes?search=%s&limit=%d", url.QueryEscape(query), searchLimit)

	var resp searchResponse
	if err := c.doJSON(ctx, cr, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Results, nil
}

// GetNote fetches a single note by ID.
func (c *Client) GetNote(ctx context.Context, cr creds.ServiceCredentials, noteID string) (*Note, error) {
	var note Note
	if err := c.doJSON(ctx, cr, http.MethodGet, "/notes/"+noteID, nil, &note); err != nil {
		return nil, err
	}

	return &note, nil
}

// GetNoteContent fetches the note's HTML body.
func (c *Client) GetNoteContent(ctx context.Context, cr creds.ServiceCredentials, noteID string) (string, error) {
	body, err := c.doRequest(ctx, cr, http.MethodGet, "/notes/"+noteID+"/content", "application/json", nil)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// PutNoteContent replaces the note's HTML body.
func (c *Client) PutNoteContent(ctx context.Context, cr creds.ServiceCredentials, noteID, html string) error {
	_, err := c.doRequest(ctx, cr, http.MethodPut, "/notes/"+noteID+"/content", "text/html", strings.NewReader(html))

	return err
}

// CreateNote creates a note. Type defaults to "text" when unset.
func (c *Client) CreateNote(ctx context.Context, cr creds.ServiceCredentials, params CreateNoteParams) (*CreatedNote, error) {
	if params.Type == "" {
		params.Type = "text"
	}

	var created CreatedNote
	if err := c.doJSON(ctx, cr, http.MethodPost, "/create-note", params, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// PatchNote updates note metadata.
func (c *Client) PatchNote(ctx context.Context, cr creds.ServiceCredentials, noteID string, patch NotePatch) (*Note, error) {
	var note Note
	if err := c.doJSON(ctx, cr, http.MethodPatch, "/notes/"+noteID, patch, &note); err != nil {
		return nil, err
	}

	return &note, nil
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(ctx context.Context, cr creds.ServiceCredentials, noteID string) error {
	_, err := c.doRequest(ctx, cr, http.MethodDelete, "/notes/"+noteID, "application/json", nil)

	return err
}

// CreateAttribute attaches a label or relation to a note.
func (c *Client) CreateAttribute(ctx context.Context, cr creds.ServiceCredentials, params AttributeParams) (*Attribute, error) {
	var attr Attribute
	if err := c.doJSON(ctx, cr, http.MethodPost, "/attributes", params, &attr); err != nil {
		return nil, err
	}

	return &attr, nil
}

// AppInfo fetches upstream version info; the status probe uses it as a
// cheap authenticated liveness check.
func (c *Client) AppInfo(ctx context.Context, cr creds.ServiceCredentials) (*AppInfo, error) {
	var info AppInfo
	if err := c.doJSON(ctx, cr, http.MethodGet, "/app-info", nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// CreateLoreNote creates a lore entry: parent defaults to the root
// container, then a "lore" label and a "loreType" label are attached to
// the created note. Both attribute calls happen only after creation
// succeeded and use the upstream-assigned note ID.
func (c *Client) CreateLoreNote(ctx context.Context, cr creds.ServiceCredentials, title, loreType, parentNoteID, content string) (*CreatedNote, error) {
	if parentNoteID == "" {
		parentNoteID = RootNoteID
	}

	created, err := c.CreateNote(ctx, cr, CreateNoteParams{
		ParentNoteID: parentNoteID,
		Title:        title,
		Content:      content,
	})
	if err != nil {
		return nil, err
	}

	noteID := created.Note.NoteID

	if _, err := c.CreateAttribute(ctx, cr, AttributeParams{NoteID: noteID, Type: "label", Name: "lore"}); err != nil {
		return nil, err
	}

	if loreType != "" {
		if _, err := c.CreateAttribute(ctx, cr, AttributeParams{NoteID: noteID, Type: "label", Name: "loreType", Value: loreType}); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// Login exchanges a password for an ETAPI token. The call is
// unauthenticated; a rejected password surfaces as UNAUTHORIZED so the UI
// can keep the user on the settings form.
func (c *Client) Login(ctx context.Context, baseURL, password string) (string, error) {
	data, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+apiPrefix+"/auth/login", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.Unreachable(serviceName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.Unreachable(serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &models.ServiceError{
			Code:    models.CodeUnauthorized,
			Status:  http.StatusUnauthorized,
			Message: fmt.Sprintf("%s returned %d: %s", serviceName, resp.StatusCode, string(respBody)),
		}
	}

	var login loginResponse
	if err := json.Unmarshal(respBody, &login); err != nil || login.AuthToken == "" {
		return "", models.UpstreamError(serviceName, resp.StatusCode, "no authToken in response")
	}

	return login.AuthToken, nil
}
