package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachdesk/internal/config"
)

func engineConfig(url string) *config.Config {
	cfg := &config.Config{
		Engine: config.EngineConfig{URL: url, Model: "test-model"},
	}
	return cfg
}

func TestConverse_SendsSystemPromptFirst(t *testing.T) {
	var got struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "resp-1",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
			"usage": map[string]int{"completion_tokens": 5},
		})
	}))
	defer srv.Close()

	reply, err := Converse(engineConfig(srv.URL), []Message{{Role: "user", Content: "hello"}}, "be brief")
	if err != nil {
		t.Fatalf("converse failed: %v", err)
	}
	if reply != "hi there" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if got.Model != "test-model" {
		t.Errorf("model not forwarded: %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0]["role"] != "system" || got.Messages[0]["content"] != "be brief" {
		t.Errorf("system prompt must lead the message list: %+v", got.Messages)
	}
	if got.Messages[1]["role"] != "user" || got.Messages[1]["content"] != "hello" {
		t.Errorf("history not forwarded: %+v", got.Messages)
	}
}

func TestConverse_OmitsEmptySystemPrompt(t *testing.T) {
	var got struct {
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	if _, err := Converse(engineConfig(srv.URL), []Message{{Role: "user", Content: "x"}}, ""); err != nil {
		t.Fatalf("converse failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0]["role"] != "user" {
		t.Errorf("no system message expected: %+v", got.Messages)
	}
}

func TestCall_EngineErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Call(srv.URL, map[string]interface{}{"model": "m"})
	if err == nil {
		t.Fatalf("expected error for a 5xx engine response")
	}
}

func TestCall_GeneratesSessionIDWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	resp, err := Call(srv.URL, map[string]interface{}{"model": "m"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if resp.SessionID == "" {
		t.Errorf("a session id must always be present")
	}
}
