package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codemate-vn/codemate-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", baseURL)
	t.Setenv("OPENAI_MODEL", "gpt-5-nano")
	t.Setenv("OPENAI_MAX_RETRIES", "1")
	c, err := New(testLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func completionBody(content string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return raw
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(testLogger(t)); err == nil {
		t.Fatalf("expected error without OPENAI_API_KEY")
	}
}

func TestComplete_SendsBothRolesAndTrimsReply(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(completionBody("  Chào bạn!  \n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	reply, err := c.Complete(context.Background(), "persona", "xin chào")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "Chào bạn!" {
		t.Fatalf("reply not trimmed: %q", reply)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Model != "gpt-5-nano" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(completionBody("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	reply, err := c.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestComplete_DoesNotRetryAuthFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "s", "u")
	var hErr *httpError
	if !errors.As(err, &hErr) || hErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected http 401 error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("401 must not be retried, got %d attempts", n)
	}
}

func TestComplete_EmptyChoicesIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestIsRetryableHTTP(t *testing.T) {
	t.Parallel()
	for code, want := range map[int]bool{
		408: true, 429: true, 500: true, 503: true,
		400: false, 401: false, 404: false, 422: false,
	} {
		if got := isRetryableHTTP(code); got != want {
			t.Fatalf("isRetryableHTTP(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestJitterSleep_StaysNearBase(t *testing.T) {
	t.Parallel()
	base := time.Second
	for i := 0; i < 50; i++ {
		got := jitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of band: %v", got)
		}
	}
	if jitterSleep(0) != 0 {
		t.Fatalf("zero base should not sleep")
	}
}
