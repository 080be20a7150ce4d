package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPreloadSendsModelWithoutPrompt(t *testing.T) {
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		fmt.Fprintln(w, `{"model":"mistral","response":"","done":true}`)
	}))
	defer server.Close()

	client := NewClient(WithURL(server.URL), WithModel("mistral"))
	if err := client.Preload(context.Background()); err != nil {
		t.Fatalf("expected preload to succeed, got %v", err)
	}

	body := <-received
	if body["model"] != "mistral" {
		t.Fatalf("expected model mistral, got %v", body["model"])
	}
	if _, ok := body["prompt"]; ok {
		t.Fatalf("expected no prompt, got %v", body["prompt"])
	}
	if body["stream"] != false {
		t.Fatalf("expected non-streaming request, got %v", body["stream"])
	}
}

func TestPreloadReportsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"error":"model \"mistral\" not found"}`)
	}))
	defer server.Close()

	err := NewClient(WithURL(server.URL), WithModel("mistral")).Preload(context.Background())
	if err == nil {
		t.Fatalf("expected preload to fail")
	}
}
