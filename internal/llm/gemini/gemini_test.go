package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_MissingKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, DefaultModel+":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "who runs acme") {
			t.Errorf("prompt missing from request body: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"name\":\"Jane Doe\"}]\n"}]}}]}`))
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := c.Complete(context.Background(), "who runs acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `[{"name":"Jane Doe"}]` {
		t.Errorf("unexpected completion %q", got)
	}
}

func TestClient_CompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{APIKey: "bad", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected API error")
	}
}
