package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestHealth tests the health probe against a stub server.
func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantModel string
		wantErr   bool
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if r.URL.Path != "/health" {
					t.Errorf("path = %s, want /health", r.URL.Path)
				}
				_ = json.NewEncoder(w).Encode(Health{Status: "ok", Model: "gpt-4o-mini"})
			},
			wantModel: "gpt-4o-mini",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>not json</html>"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			h, err := New(srv.URL).Health(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("Health() = nil error, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Health() = %v, want nil", err)
			}
			if h.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", h.Model, tt.wantModel)
			}
		})
	}
}

// TestHealthUnreachable tests that a dead server reports an error
// instead of a payload.
func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // shut down before use

	if _, err := New(srv.URL).Health(context.Background()); err == nil {
		t.Fatal("Health() = nil error, want connection error")
	}
}

// TestChat tests the chat request round trip including the request body
// the client sends.
func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Query != "¿Cuándo se tomó Granada?" {
			t.Errorf("query = %q", req.Query)
		}
		if req.K != 3 {
			t.Errorf("k = %d, want 3", req.K)
		}

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Answer: "En 1492.",
			Sources: []Source{
				{Filename: "cronica.pdf", Page: 12, Text: "La toma de Granada…", Score: 0.91},
				{Filename: "apuntes.txt", Text: "Granada, 1492"},
			},
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Chat(context.Background(), "¿Cuándo se tomó Granada?", 3)
	if err != nil {
		t.Fatalf("Chat() = %v, want nil", err)
	}
	if resp.Answer != "En 1492." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(resp.Sources))
	}
	if resp.Sources[1].Page != 0 {
		t.Errorf("Sources[1].Page = %d, want 0 (absent)", resp.Sources[1].Page)
	}
}

// TestChatDefaultTopK tests that a non-positive k falls back to the
// default before it reaches the wire.
func TestChatDefaultTopK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.K != DefaultTopK {
			t.Errorf("k = %d, want %d", req.K, DefaultTopK)
		}
		_ = json.NewEncoder(w).Encode(ChatResponse{Answer: "ok"})
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Chat(context.Background(), "hola", 0); err != nil {
		t.Fatalf("Chat() = %v, want nil", err)
	}
}

// TestChatServerError tests that a non-200 chat still returns an error
// the UI can map to its fixed message.
func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Chat(context.Background(), "hola", 1); err == nil {
		t.Fatal("Chat() = nil error, want error")
	}
}

// TestCitations tests the wire-to-transcript conversion.
func TestCitations(t *testing.T) {
	resp := &ChatResponse{
		Sources: []Source{
			{Filename: "testamento.pdf", Page: 4, Text: "Yo la Reina…", Score: 0.8},
		},
	}

	cs := resp.Citations()
	if len(cs) != 1 {
		t.Fatalf("len = %d, want 1", len(cs))
	}
	c := cs[0]
	if c.Filename != "testamento.pdf" || c.Page != 4 || c.Snippet != "Yo la Reina…" || c.Score != 0.8 {
		t.Errorf("Citations()[0] = %+v", c)
	}
}
