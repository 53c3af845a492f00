// Package allknower is the client for the AllKnower AI assistant service.
//
// Auth is a bearer token in the Authorization header. Credentials are
// passed per call; the client is stateless and safe for concurrent use.
package allknower

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lorechronicle/creds"
	"lorechronicle/models"
)

const (
	serviceName = "AllKnower"

	defaultTimeout = 8 * time.Second

	// DefaultTopK bounds semantic queries when the caller does not ask
	// for a specific result count.
	DefaultTopK = 10
)

// Client performs authenticated calls against an AllKnower instance.
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

func (c *Client) doRequest(ctx context.Context, cr creds.ServiceCredentials, method, path string, in any) ([]byte, error) {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cr.URL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cr.Token)
	req.Header.Set("Content-Type", "application/json")

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
	respBody, err := c.doRequest(ctx, cr, method, path, in)
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

// RunBrainDump submits free-form text for entity extraction and note
// creation on the upstream side.
func (c *Client) RunBrainDump(ctx context.Context, cr creds.ServiceCredentials, rawText string) (*BrainDumpResult, error) {
	var result BrainDumpResult
	if err := c.doJSON(ctx, cr, http.MethodPost, "/brain-dump", map[string]string{"rawText": rawText}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// BrainDumpHistory fetches past ingestion runs, newest first.
func (c *Client) BrainDumpHistory(ctx context.Context, cr creds.ServiceCredentials) ([]BrainDumpHistoryEntry, error) {
	var history []BrainDumpHistoryEntry
	if err := c.doJSON(ctx, cr, http.MethodGet, "/brain-dump/history", nil, &history); err != nil {
		return nil, err
	}

	return history, nil
}

// QueryRag runs a semantic query and returns the topK ranked chunks.
func (c *Client) QueryRag(ctx context.Context, cr creds.ServiceCredentials, text string, topK int) ([]RagChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	var resp ragResponse
	if err := c.doJSON(ctx, cr, http.MethodPost, "/rag/query", ragRequest{Text: text, TopK: topK}, &resp); err != nil {
		return nil, err
	}

	return resp.Chunks, nil
}

// CheckConsistency runs the consistency checker, optionally restricted to
// a subset of notes. A nil or empty slice checks the whole chronicle.
func (c *Client) CheckConsistency(ctx context.Context, cr creds.ServiceCredentials, noteIDs []string) (*ConsistencyResult, error) {
	body := map[string]any{}
	if len(noteIDs) > 0 {
		body["noteIds"] = noteIDs
	}

	var result ConsistencyResult
	if err := c.doJSON(ctx, cr, http.MethodPost, "/consistency", body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// SuggestRelationships asks for relation suggestions for free text.
func (c *Client) SuggestRelationships(ctx context.Context, cr creds.ServiceCredentials, text string) ([]RelationshipSuggestion, error) {
	var resp relationshipsResponse
	if err := c.doJSON(ctx, cr, http.MethodPost, "/relationships", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}

	return resp.Suggestions, nil
}

// DetectGaps asks for under-developed areas across the chronicle.
func (c *Client) DetectGaps(ctx context.Context, cr creds.ServiceCredentials) (*GapResult, error) {
	var result GapResult
	if err := c.doJSON(ctx, cr, http.MethodGet, "/gaps", nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Health probes the service; any classified error means "not ok".
func (c *Client) Health(ctx context.Context, cr creds.ServiceCredentials) error {
	_, err := c.doRequest(ctx, cr, http.MethodGet, "/health", nil)

	return err
}

// Login signs in with email and password and returns the session token.
// The upstream auth layer requires an Origin header matching the service
// URL; without it the sign-in is rejected.
func (c *Client) Login(ctx context.Context, baseURL, email, password string) (token string, user map[string]any, err error) {
	data, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/auth/sign-in/email", bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, models.Unreachable(serviceName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, models.Unreachable(serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, &models.ServiceError{
			Code:    models.CodeUnauthorized,
			Status:  http.StatusUnauthorized,
			Message: fmt.Sprintf("%s returned %d: %s", serviceName, resp.StatusCode, string(respBody)),
		}
	}

	var signIn signInResponse
	if err := json.Unmarshal(respBody, &signIn); err != nil {
		return "", nil, models.UpstreamError(serviceName, resp.StatusCode, "invalid JSON in response: "+err.Error())
	}

	token = signIn.Token
	if token == "" {
		token = signIn.Session.Token
	}

	if token == "" {
		return "", nil, models.UpstreamError(serviceName, resp.StatusCode, "no token in response")
	}

	return token, signIn.User, nil
}
