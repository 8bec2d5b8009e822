package randomword

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heartmarshall/wordbrowser/internal/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_FetchWords_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/word" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("number"); got != "3" {
			t.Errorf("number = %q, want 3", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["alpha","beta","gamma"]`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL+"/word", newTestLogger())
	words, err := c.FetchWords(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"alpha", "beta", "gamma"}
	if len(words) != len(want) {
		t.Fatalf("len(words) = %d, want %d", len(words), len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("words[%d] = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestClient_FetchWords_KeepsExistingQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lang"); got != "en" {
			t.Errorf("lang = %q, want en", got)
		}
		if got := r.URL.Query().Get("number"); got != "10" {
			t.Errorf("number = %q, want 10", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := config.WordsConfig{RandomWordURL: srv.URL + "/word?lang=en", HTTPTimeout: time.Second}
	c := NewClient(cfg, newTestLogger())
	if _, err := c.FetchWords(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_FetchWords_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: ``},
		{name: "not found", status: http.StatusNotFound, body: `{}`},
		{name: "invalid json", status: http.StatusOK, body: `not json`},
		{name: "wrong shape", status: http.StatusOK, body: `{"words":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClientWithURL(srv.URL, newTestLogger())
			if _, err := c.FetchWords(context.Background(), 2); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestClient_FetchWords_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClientWithURL(url, newTestLogger())
	if _, err := c.FetchWords(context.Background(), 2); err == nil {
		t.Fatal("expected error for closed server")
	}
}
