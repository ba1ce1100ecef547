package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaSendsZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]string{"role": "assistant", "content": "SELECT 1"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        3,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:     "sqlcoder",
		Messages:  []Message{{Role: "user", Content: "q"}},
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if resp.Content != "SELECT 1" || resp.TotalTokens != 15 {
		t.Fatalf("resp = %+v", resp)
	}

	opts, ok := got["options"].(map[string]any)
	if !ok {
		t.Fatalf("options missing from request: %v", got)
	}
	if temp, ok := opts["temperature"]; !ok || temp.(float64) != 0 {
		t.Fatalf("temperature = %v, want explicit 0", opts["temperature"])
	}
}

func TestOllamaNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL).ChatCompletion(context.Background(), ChatRequest{Model: "nope"})
	if err == nil {
		t.Fatal("expected error for 404")
	}
}
