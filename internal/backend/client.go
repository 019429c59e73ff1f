// Package backend implements the HTTP client for the isabel-chat
// question-answering service. The service exposes two endpoints: a
// health probe reporting the language model in use, and a chat endpoint
// answering one query with retrieval sources.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/trastamara/isabel-chat/internal/transcript"
)

// DefaultTopK is the number of retrieval sources requested when the
// caller does not configure one.
const DefaultTopK = 5

// Health is the payload of GET /health.
type Health struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Source is one retrieval hit returned alongside an answer. Page is
// 1-based; the backend omits it for unpaged documents. Text is a
// snippet of the matched chunk, already truncated server-side.
type Source struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page,omitempty"`
	Text     string  `json:"text,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// ChatResponse is the payload of POST /chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Citations converts the response sources into transcript citations.
func (r *ChatResponse) Citations() []transcript.Citation {
	cs := make([]transcript.Citation, 0, len(r.Sources))
	for _, s := range r.Sources {
		cs = append(cs, transcript.Citation{
			Filename: s.Filename,
			Page:     s.Page,
			Snippet:  s.Text,
			Score:    s.Score,
		})
	}
	return cs
}

// Client talks to one backend instance. No request timeout is set: a
// chat request runs until the server answers, the connection drops, or
// the context is cancelled. Failures are never retried here; every
// failed operation needs a new user action.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
	}
}

// Health probes GET /health. Any transport error, non-200 status, or
// unparseable body is reported as an error.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("health: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health: unexpected status %s", resp.Status)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("health: decoding response: %w", err)
	}
	return &h, nil
}

// Chat posts one query to POST /chat and returns the answer with its
// sources. k is the number of retrieval sources to request; values < 1
// fall back to DefaultTopK.
func (c *Client) Chat(ctx context.Context, query string, k int) (*ChatResponse, error) {
	if k < 1 {
		k = DefaultTopK
	}

	body, err := json.Marshal(ChatRequest{Query: query, K: k})
	if err != nil {
		return nil, fmt.Errorf("chat: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chat: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat: unexpected status %s", resp.Status)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("chat: decoding response: %w", err)
	}
	return &out, nil
}
