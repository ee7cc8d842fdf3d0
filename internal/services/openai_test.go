package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAICompleter_RequestShape(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotCT     string
		gotMethod string
		gotBody   map[string]any
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer upstream.Close()

	c := NewOpenAICompleter("gsk-secret", upstream.URL+"/", "llama3-70b-8192", upstream.Client())
	reply, err := c.Complete(context.Background(), "  hi there ")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if reply != "hello" {
		t.Errorf("reply = %q, want %q", reply, "hello")
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer gsk-secret" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotCT)
	}
	if gotBody["model"] != "llama3-70b-8192" {
		t.Errorf("model = %v, want configured model", gotBody["model"])
	}

	msgs, ok := gotBody["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("messages = %v, want exactly one turn", gotBody["messages"])
	}
	turn, _ := msgs[0].(map[string]any)
	if turn["role"] != "user" {
		t.Errorf("role = %v, want user", turn["role"])
	}
	if turn["content"] != "  hi there " {
		t.Errorf("content = %q, want message forwarded verbatim", turn["content"])
	}
}

func TestOpenAICompleter_EmptyContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"message without content", `{"choices":[{"message":{}}]}`},
		{"no choices", `{"choices":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer upstream.Close()

			c := NewOpenAICompleter("key", upstream.URL, "m", upstream.Client())
			reply, err := c.Complete(context.Background(), "hi")
			if err != nil {
				t.Fatalf("Complete() error: %v", err)
			}
			if reply != "" {
				t.Errorf("reply = %q, want empty", reply)
			}
		})
	}
}

func TestOpenAICompleter_UpstreamStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"json error body", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`},
		{"plain text body", http.StatusBadGateway, `bad gateway`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer upstream.Close()

			c := NewOpenAICompleter("key", upstream.URL, "m", upstream.Client())
			_, err := c.Complete(context.Background(), "hi")

			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("err = %v, want *UpstreamError", err)
			}
			if upErr.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", upErr.StatusCode, tc.status)
			}
		})
	}
}

func TestOpenAICompleter_MalformedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [`))
	}))
	defer upstream.Close()

	c := NewOpenAICompleter("key", upstream.URL, "m", upstream.Client())
	_, err := c.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for malformed upstream body")
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		t.Fatalf("malformed 200 body should not be an upstream status error: %v", err)
	}
}
