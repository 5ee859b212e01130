package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server) *GeminiClient {
	config := DefaultGeminiConfig("test-key")
	config.BaseURL = server.URL
	config.Timeout = 5 * time.Second

	return NewGeminiClientWithConfig(config)
}

func TestGeminiClient_Complete(t *testing.T) {
	var gotPath, gotKey string

	var gotRequest geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"#include \"unity.h\"\n"},{"text":"void test_a(void) {}\n"}]}}]}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	got, err := client.Complete(context.Background(), "generate tests")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(got, "unity.h") || !strings.Contains(got, "test_a") {
		t.Fatalf("parts not concatenated: %q", got)
	}

	if !strings.HasSuffix(gotPath, "/models/gemini-2.0-flash-exp:generateContent") {
		t.Fatalf("unexpected request path: %s", gotPath)
	}

	if gotKey != "test-key" {
		t.Fatalf("unexpected key: %s", gotKey)
	}

	if len(gotRequest.Contents) != 1 || gotRequest.Contents[0].Role != "user" {
		t.Fatalf("unexpected request body: %+v", gotRequest)
	}

	if gotRequest.Contents[0].Parts[0].Text != "generate tests" {
		t.Fatalf("prompt not carried: %+v", gotRequest)
	}
}

func TestGeminiClient_Complete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGeminiClient_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":{"code":400,"message":"invalid model","status":"INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "invalid model") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestGeminiClient_Complete_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "no completion") {
		t.Fatalf("expected no-completion error, got %v", err)
	}
}

func TestGeminiClient_Complete_MissingKey(t *testing.T) {
	client := NewGeminiClient("")

	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}

func TestGeminiClient_Complete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, "prompt"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
