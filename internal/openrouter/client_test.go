package openrouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/utils"
)

func newTestClient(baseURL string) *Client {
	return NewClient(utils.OpenRouterConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, zap.NewNop().Sugar())
}

func TestCompleteParsesFirstChoice(t *testing.T) {
	var gotAuth string
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	reply, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}

	if reply != "hello there" {
		t.Fatalf("expected parsed choice content, got %q", reply)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}

	if !strings.Contains(gotBody, `"model":"gpt-4o-mini"`) {
		t.Fatalf("expected fixed model in payload, got %s", gotBody)
	}

	if !strings.Contains(gotBody, "customer support assistant") {
		t.Fatalf("expected system instruction in payload, got %s", gotBody)
	}
}

func TestCompleteFallsBackToRawPayload(t *testing.T) {
	raw := `{"output":"unexpected shape"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(raw))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	reply, err := client.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}

	if reply != raw {
		t.Fatalf("expected raw payload fallback, got %q", reply)
	}
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":"rate_limited","message":"slow down"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected error for non-2xx response")
	}

	if !strings.Contains(err.Error(), "rate_limited") || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected decoded error envelope, got %v", err)
	}
}

func TestCompleteRejectsEmptyMessage(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")

	if _, err := client.Complete(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty message")
	}
}
