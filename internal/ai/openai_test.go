package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const openaiChatReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": CONTENT}
  }]
}`

func newOpenAITestServer(t *testing.T, status int, content string, got *map[string]any, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q, want chat completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			b, _ := json.Marshal(content)
			_, _ = w.Write([]byte(strings.Replace(openaiChatReply, "CONTENT", string(b), 1)))
			return
		}
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerateStructured(t *testing.T) {
	var (
		got   map[string]any
		calls atomic.Int32
	)
	srv := newOpenAITestServer(t, http.StatusOK, `{"ideas": ["a", "b"]}`, &got, &calls)

	p := NewOpenAIProvider(testProviderConfig(srv.URL + "/v1/"))
	text, err := p.GenerateStructured(context.Background(), "extract from post", IdeasShape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"ideas": ["a", "b"]}` {
		t.Errorf("GenerateStructured() = %q", text)
	}

	if got["model"] != "extract-model" {
		t.Errorf("model = %v, want extract-model", got["model"])
	}
	if got["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v, want 1024", got["max_tokens"])
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %v, want json_schema", got["response_format"])
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["name"] != "ideas" || schema["strict"] != true {
		t.Errorf("json_schema = %v, want strict ideas schema", schema)
	}
}

func TestOpenAIComplete(t *testing.T) {
	var (
		got   map[string]any
		calls atomic.Int32
	)
	srv := newOpenAITestServer(t, http.StatusOK, "A paragraph.", &got, &calls)

	p := NewOpenAIProvider(testProviderConfig(srv.URL + "/v1/"))
	text, err := p.Complete(context.Background(), "Chatbots")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "A paragraph." {
		t.Errorf("Complete() = %q", text)
	}
	if got["max_tokens"] != float64(150) || got["temperature"] != 0.7 {
		t.Errorf("request used max_tokens=%v temperature=%v, want 150/0.7", got["max_tokens"], got["temperature"])
	}
	if _, ok := got["response_format"]; ok {
		t.Error("free-text call should not set response_format")
	}
}

func TestOpenAINoRetry(t *testing.T) {
	var (
		got   map[string]any
		calls atomic.Int32
	)
	srv := newOpenAITestServer(t, http.StatusServiceUnavailable, "", &got, &calls)

	p := NewOpenAIProvider(testProviderConfig(srv.URL + "/v1/"))
	if _, err := p.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times, want exactly 1", n)
	}
}
