package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aibot/core/config"
	"aibot/core/fault"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("Authorization = %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"result":"https://cdn.example/out.png"}`))
	}))
	defer srv.Close()

	c := New(config.AIConfig{BaseURL: srv.URL, APIKey: "key-1"})
	got, err := c.Generate(context.Background(), "image-gen", "a red fox")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "https://cdn.example/out.png" {
		t.Fatalf("result = %s", got)
	}
}

func TestGeneratePermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"prompt rejected"}`))
	}))
	defer srv.Close()

	c := New(config.AIConfig{BaseURL: srv.URL, MaxRetries: 3})
	_, err := c.Generate(context.Background(), "chat-text", "prompt")
	if !fault.IsKind(err, fault.KindValidationError) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}
